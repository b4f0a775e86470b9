/*
 *  MIT License
 *
 *  Copyright (c) 2024 Meg Authors
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

// Command meg serves files from within archives stored on an
// S3-compatible bucket, as if the archives were directories.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	arcfmt "github.com/megfs/meg/archive/format"
	libcch "github.com/megfs/meg/cache"
	libcfg "github.com/megfs/meg/config"
	libhdl "github.com/megfs/meg/handler"
	libmtp "github.com/megfs/meg/mediatype"
	libntf "github.com/megfs/meg/notify"
	libpln "github.com/megfs/meg/planner"
	stos3 "github.com/megfs/meg/store/s3"
)

const shutdownGrace = 10 * time.Second

func main() {
	if e := newCommand().Execute(); e != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var logLevel string

	v := viper.New()

	cmd := &cobra.Command{
		Use:           "meg",
		Short:         "serve files from within archives stored on an S3-compatible bucket",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logrus.New()

			if lvl, e := logrus.ParseLevel(logLevel); e == nil {
				log.SetLevel(lvl)
			}

			if e := v.BindPFlags(cmd.Flags()); e != nil {
				return e
			}

			libcfg.BindEnv(v)

			cfg, err := libcfg.FromViper(v)
			if err != nil {
				return err
			}

			if err = cfg.Validate(); err != nil {
				log.WithError(err).Error("startup validation failed")
				return err
			}

			return run(cmd.Context(), cfg, log)
		},
	}

	fl := cmd.Flags()
	fl.String("url", "", "object store endpoint url (s3://bucket or https endpoint)")
	fl.String("region", "", "object store region")
	fl.String("access-key", "", "object store access key")
	fl.String("secret-key", "", "object store secret key")
	fl.String("bucket", "", "bucket name, extracted from the url when omitted")
	fl.String("host", "0.0.0.0", "listening host")
	fl.Int("port", 8080, "listening port")
	fl.String("cache", libcfg.CacheMemory, "cache backend: in-memory or redis:<url>")
	fl.Bool("force-download", false, "serve inner entries as attachments")
	fl.String("nats-url", "", "nats endpoint pushing bucket notifications; disables the etag poll")
	fl.String("nats-subject", libntf.DefaultNatsSubject, "nats subject of the bucket notifications")
	fl.StringVar(&logLevel, "log-level", "info", "logging level")

	return cmd
}

func run(ctx context.Context, cfg *libcfg.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	str, err := stos3.New(ctx, stos3.Config{
		Endpoint:  cfg.Endpoint(),
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		PathStyle: cfg.PathStyle(),
	})

	if err != nil {
		return err
	}

	prv, perr := provider(cfg)
	if perr != nil {
		return perr
	}

	cch := libcch.New(prv)
	defer func() {
		_ = cch.Close()
	}()

	pln := libpln.New(str, cch, arcfmt.Default(), libmtp.New(), log)

	wtc := libntf.New(str, cch, log, 0)

	// the periodic poll runs only when no push channel is configured
	if cfg.NatsURL != "" {
		nc, e := nats.Connect(cfg.NatsURL)
		if e != nil {
			return e
		}
		defer nc.Close()

		ch, nerr := libntf.NatsSource(ctx, nc, cfg.NatsSubject, log)
		if nerr != nil {
			return nerr
		}

		go wtc.Listen(ctx, ch)
	} else {
		go wtc.Poll(ctx)
	}

	gin.SetMode(gin.ReleaseMode)

	eng := gin.New()
	eng.Use(gin.Recovery())
	eng.GET("/metrics", gin.WrapH(promhttp.Handler()))
	libhdl.New(pln, log, cfg.ForceDownload).Register(eng)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: eng,
	}

	done := make(chan error, 1)

	go func() {
		if e := srv.ListenAndServe(); !errors.Is(e, http.ErrServerClosed) {
			done <- e
			return
		}
		done <- nil
	}()

	log.WithField("addr", srv.Addr).Info("meg listening")

	select {
	case e := <-done:
		return e

	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if e := srv.Shutdown(sctx); e != nil {
			return e
		}

		log.Info("meg stopped")
		return nil
	}
}

func provider(cfg *libcfg.Config) (libcch.Provider, error) {
	kind, addr, err := cfg.CacheBackend()

	if err != nil {
		return nil, err
	}

	if kind == libcfg.CacheRedis {
		return libcch.NewRedis(addr)
	}

	return libcch.NewMemory(0), nil
}
