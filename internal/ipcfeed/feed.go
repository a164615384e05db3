// Package ipcfeed consumes host notification messages from a WebSocket
// endpoint and hands them, in arrival order, to a delivery sink.
package ipcfeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/shamaton/msgpack/v2"
)

// Message is one notification frame: a channel name and an arbitrary
// payload.
type Message struct {
	Channel string `json:"channel" msgpack:"channel"`
	Payload any    `json:"payload" msgpack:"payload"`
}

// Codec decodes wire frames into Messages.
type Codec interface {
	Name() string
	Decode(data []byte, msg *Message) error
}

// JSONCodec decodes JSON frames.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Decode(data []byte, msg *Message) error {
	return json.Unmarshal(data, msg)
}

// MsgpackCodec decodes MessagePack frames.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return "msgpack" }

func (MsgpackCodec) Decode(data []byte, msg *Message) error {
	return msgpack.Unmarshal(data, msg)
}

// CodecByName resolves a codec from its configuration name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown feed codec %q", name)
	}
}

// Sink receives decoded messages one at a time, in arrival order.
type Sink interface {
	Deliver(channel string, payload any) error
}

// Feed reads frames from one WebSocket connection.
type Feed struct {
	conn  *websocket.Conn
	codec Codec
	log   zerolog.Logger
}

// New wraps an accepted or dialed connection.
func New(conn *websocket.Conn, codec Codec, log zerolog.Logger) *Feed {
	return &Feed{conn: conn, codec: codec, log: log}
}

// Dial connects to a feed endpoint.
func Dial(ctx context.Context, url string, codec Codec, log zerolog.Logger) (*Feed, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing feed %s: %w", url, err)
	}
	return New(conn, codec, log), nil
}

// Run reads frames until the connection closes or ctx is canceled,
// delivering each decoded message to sink in order. A frame that fails to
// decode is logged and skipped; a delivery error stops the loop. A normal
// close ends the loop without error.
func (f *Feed) Run(ctx context.Context, sink Sink) error {
	defer f.conn.Close(websocket.StatusNormalClosure, "")

	for {
		_, data, err := f.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading feed frame: %w", err)
		}

		var msg Message
		if err := f.codec.Decode(data, &msg); err != nil {
			f.log.Warn().Err(err).Str("codec", f.codec.Name()).
				Msg("skipping undecodable feed frame")
			continue
		}
		if err := sink.Deliver(msg.Channel, msg.Payload); err != nil {
			return fmt.Errorf("delivering %q: %w", msg.Channel, err)
		}
	}
}
