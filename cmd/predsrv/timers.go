/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Sweeper drops idle transactions on a cron schedule.  A transaction
// that a client abandons without an End op would otherwise live
// forever.
func (s *Service) Sweeper(ctx context.Context, schedule string, maxAge time.Duration) error {
	c, err := cronexpr.Parse(schedule)
	if err != nil {
		return err
	}

	go func() {
		for {
			now := time.Now()
			next := c.Next(now)
			if next.IsZero() {
				s.err(fmt.Errorf("sweeper schedule %q has no next time", schedule))
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(next.Sub(now)):
			}
			if n := s.expire(maxAge); n > 0 {
				log.Printf("Service.Sweeper expired %d transactions", n)
			}
		}
	}()

	return nil
}
