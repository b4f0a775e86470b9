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

package config

import (
	"github.com/spf13/viper"

	liberr "github.com/megfs/meg/errors"
)

// envKeys binds each config key to its environment variables, first set
// wins. MEG_PORT shadows the generic PORT.
var envKeys = map[string][]string{
	"url":          {"S3_URL"},
	"region":       {"S3_REGION"},
	"access-key":   {"S3_ACCESS_KEY"},
	"secret-key":   {"S3_SECRET_KEY"},
	"bucket":       {"S3_BUCKET"},
	"host":         {"MEG_HOST"},
	"port":         {"MEG_PORT", "PORT"},
	"nats-url":     {"MEG_NATS_URL"},
	"nats-subject": {"MEG_NATS_SUBJECT"},
}

// BindEnv registers the environment variables on a viper instance.
func BindEnv(v *viper.Viper) {
	for key, envs := range envKeys {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...)
	}
}

// FromViper builds the configuration from a viper instance holding bound
// flags and environment variables over the defaults.
func FromViper(v *viper.Viper) (*Config, liberr.Error) {
	c := Default()

	if e := v.Unmarshal(c); e != nil {
		return nil, ErrorValidate.Error(e)
	}

	return c, nil
}
