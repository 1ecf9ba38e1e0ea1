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
	"bufio"
	"context"
	"log"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

// WebSocketClient talks to a running predsrv: stdin lines go to the
// service as ops, and everything the service emits comes back on
// stdout.
func WebSocketClient(ctx context.Context, urls string) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u, err := url.Parse(urls)
	if err != nil {
		return err
	}

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Printf("WebSocketClient starting: %s", urls)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, message, err := c.ReadMessage()
			if err != nil {
				log.Printf("WebSocketClient read error %v", err)
				cancel()
				return
			}
			os.Stdout.Write(append(message, '\n'))
		}
	}()

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := in.Bytes()
		if len(line) == 0 {
			continue
		}
		if err = c.WriteMessage(websocket.TextMessage, line); err != nil {
			return err
		}
	}

	return in.Err()
}
