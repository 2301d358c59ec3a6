// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package wsclient

import "fmt"

func validateBackend() Option {
	return optionFunc(
		func(c *Client) error {
			if c.backend == nil {
				return fmt.Errorf("%w: missing backend", ErrMisconfiguredClient)
			}
			return nil
		})
}

func validateURL() Option {
	return optionFunc(
		func(c *Client) error {
			if c.request.URL == "" {
				return fmt.Errorf("%w: missing URL", ErrMisconfiguredClient)
			}
			return nil
		})
}

func validateStrategy() Option {
	return optionFunc(
		func(c *Client) error {
			if c.strategy == nil {
				return fmt.Errorf("%w: nil reconnect strategy", ErrMisconfiguredClient)
			}
			return nil
		})
}

func validateNowFunc() Option {
	return optionFunc(
		func(c *Client) error {
			if c.nowFunc == nil {
				return fmt.Errorf("%w: nil NowFunc", ErrMisconfiguredClient)
			}
			return nil
		})
}
