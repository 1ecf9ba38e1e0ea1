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
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTService subscribes to opsTopic, treating each message as an SOp,
// and publishes each op's results to resultsTopic.
func (s *Service) MQTTService(ctx context.Context, broker, clientId, opsTopic, resultsTopic string) error {

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientId)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if t := client.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	log.Printf("Service.MQTTService connected to %s", broker)

	results := make(chan interface{}, 32)

	handler := func(c mqtt.Client, m mqtt.Message) {
		var op SOp
		if err := json.Unmarshal(m.Payload(), &op); err != nil {
			s.err(fmt.Errorf("MQTTService can't parse %s: %v", m.Payload(), err))
			return
		}
		if err := s.Do(ctx, &op); err != nil {
			s.err(err)
		}
	}

	if t := client.Subscribe(opsTopic, 0, handler); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	// The service firehose goes to the websocket connections; MQTT
	// gets its own tap so each transport sees every result.
	s.tap(results)

	go func() {
		for {
			select {
			case <-ctx.Done():
				client.Disconnect(250)
				return
			case x := <-results:
				js, err := json.Marshal(&x)
				if err != nil {
					s.err(err)
					continue
				}
				if t := client.Publish(resultsTopic, 0, false, js); t.Wait() && t.Error() != nil {
					s.err(t.Error())
				}
			}
		}
	}()

	return nil
}
