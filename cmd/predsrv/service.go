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
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Comcast/predicate/core"
	"github.com/Comcast/predicate/oracle"
)

// Service hosts one compiled Oracle and any number of live
// transactions, fed over websockets or MQTT.
type Service struct {
	oracle  *oracle.Oracle
	storage *Storage

	mu  sync.Mutex
	txs map[string]*transaction

	// taps get a copy of every op result: one per transport
	// (websocket firehose, MQTT results topic).
	taps []chan interface{}

	Errors chan error
}

// tap registers a channel to receive every op result.
func (s *Service) tap(c chan interface{}) {
	s.mu.Lock()
	s.taps = append(s.taps, c)
	s.mu.Unlock()
}

// emit sends x to every tap, dropping rather than blocking.
func (s *Service) emit(x interface{}) {
	s.mu.Lock()
	taps := s.taps
	s.mu.Unlock()
	for _, c := range taps {
		select {
		case c <- x:
		default:
			log.Printf("Service.emit tap blocked; dropping %v", x)
		}
	}
}

type transaction struct {
	fields *oracle.FieldMap
	tx     *oracle.Transaction
	seen   time.Time
}

func NewService(o *oracle.Oracle, storage *Storage) *Service {
	return &Service{
		oracle:  o,
		storage: storage,
		txs:     make(map[string]*transaction),
		Errors:  make(chan error, 32),
	}
}

func (s *Service) err(e error) {
	select {
	case s.Errors <- e:
	default:
		log.Printf("Service error (and Errors blocked): %v", e)
	}
}

// SOp is one operation against the service, as JSON.
//
// Every op names a transaction (default "default").  An op can deliver
// field values, mark a field or the whole transaction's input
// complete, run a phase, query a rule, or end the transaction.  An op
// can do several of those at once; they apply in that order.
type SOp struct {
	Tx string `json:"tx,omitempty"`

	// Field delivery.
	Field  string        `json:"field,omitempty"`
	Values []interface{} `json:"values,omitempty"`
	// Finish marks Field complete ("all input" if Field is empty).
	Finish bool `json:"finish,omitempty"`

	// Phase, if given, runs that phase.
	Phase string `json:"phase,omitempty"`

	// Query, if given, asks about a rule id.
	Query string `json:"query,omitempty"`

	End bool `json:"end,omitempty"`
}

// SResult is what an op produces.
type SResult struct {
	Tx    string `json:"tx"`
	Error string `json:"error,omitempty"`

	// After a Phase: the rules that fired.
	Phase string   `json:"phase,omitempty"`
	Fired []string `json:"fired,omitempty"`

	// After a Query.
	Rule     string   `json:"rule,omitempty"`
	Truthy   *bool    `json:"truthy,omitempty"`
	Finished *bool    `json:"finished,omitempty"`
	Values   []string `json:"values,omitempty"`
}

func (s *Service) transactionFor(id string) (*transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, have := s.txs[id]
	if !have {
		fields := oracle.NewFieldMap()
		tx, err := s.oracle.NewTransaction(fields, nil, nil)
		if err != nil {
			return nil, err
		}
		t = &transaction{fields: fields, tx: tx}
		s.txs[id] = t
	}
	t.seen = time.Now()
	return t, nil
}

// Do executes one op, emitting its results on the firehose.
func (s *Service) Do(ctx context.Context, op *SOp) error {
	id := op.Tx
	if id == "" {
		id = "default"
	}
	result := &SResult{Tx: id}

	err := s.do(op, id, result)
	if err != nil {
		result.Error = err.Error()
	}

	s.emit(result)
	return err
}

func (s *Service) do(op *SOp, id string, result *SResult) error {
	t, err := s.transactionFor(id)
	if err != nil {
		return err
	}

	if op.Field != "" {
		for _, x := range op.Values {
			v, err := jsonToValue(x)
			if err != nil {
				return err
			}
			t.fields.Add(op.Field, v)
		}
		if op.Finish {
			t.fields.FinishField(op.Field)
		}
	} else if op.Finish {
		t.fields.FinishAll()
	}

	if op.Phase != "" {
		p, have := core.PhaseNamed(op.Phase)
		if !have {
			return fmt.Errorf("unknown phase %q", op.Phase)
		}
		if err := t.tx.RunPhase(p); err != nil {
			return err
		}
		result.Phase = op.Phase
		result.Fired = t.tx.Fired(p)
	}

	if op.Query != "" {
		truthy, err := t.tx.Truthy(op.Query)
		if err != nil {
			return err
		}
		finished, err := t.tx.Finished(op.Query)
		if err != nil {
			return err
		}
		vl, err := t.tx.Values(op.Query)
		if err != nil {
			return err
		}
		result.Rule = op.Query
		result.Truthy = &truthy
		result.Finished = &finished
		for _, v := range vl.Values() {
			result.Values = append(result.Values, v.String())
		}
	}

	if op.End {
		s.mu.Lock()
		delete(s.txs, id)
		s.mu.Unlock()
	}
	return nil
}

// expire drops transactions idle longer than age, returning how many.
func (s *Service) expire(age time.Duration) int {
	cutoff := time.Now().Add(-age)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, t := range s.txs {
		if t.seen.Before(cutoff) {
			delete(s.txs, id)
			n++
		}
	}
	return n
}

// WebSocketService serves the op protocol at /ws/api and streams the
// firehose to every connection.
func (s *Service) WebSocketService(ctx context.Context) error {

	ops := make(chan interface{}, 1024)
	s.tap(ops)

	var upgrader = websocket.Upgrader{} // use default options

	conns := sync.Map{}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case x := <-ops:
				conns.Range(func(k, v interface{}) bool {
					c := v.(chan interface{})
					select {
					case c <- x:
					default:
						log.Printf("%v ops blocked", k)
					}
					return true
				})
			}
		}
	}()

	api := func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Service.WebSocketService connection")

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		ctl := make(chan bool)
		defer close(ctl)

		in := make(chan interface{}, 32)
		defer close(in)

		id := c.RemoteAddr().String()
		conns.Store(id, in)
		defer conns.Delete(id)

		go func() {
			mt := websocket.TextMessage

		LOOP:
			for {
				select {
				case <-ctl:
					break LOOP
				case <-ctx.Done():
					break LOOP
				case x := <-in:
					if x == nil {
						break LOOP
					}
					js, err := json.Marshal(&x)
					if err != nil {
						log.Printf("s.firehose Marshal error %v on %#v", err, x)
						continue
					}
					if err = c.WriteMessage(mt, js); err != nil {
						log.Println("s.firehose write:", err)
					}
				}
			}
		}()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				log.Println("read error", err)
				break
			}

			var op SOp
			if err := json.Unmarshal(message, &op); err != nil {
				msg := fmt.Sprintf("can't parse: %v", err)
				if err = c.WriteMessage(mt, []byte(msg)); err != nil {
					log.Println("write (err)", err)
				}
				continue
			}
			if err = s.Do(ctx, &op); err != nil {
				log.Println("op error", err)
				// Conveyed to the client via the firehose.
			}
		}
	}

	http.HandleFunc("/ws/api", api)

	return nil
}
