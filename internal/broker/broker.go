package broker

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"syscall"

	"github.com/shake-karrot/kafkabroker/internal/blog"
	"github.com/shake-karrot/kafkabroker/internal/frame"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
	"github.com/shake-karrot/kafkabroker/internal/telemetry"
)

// Broker is the dispatch engine: it accepts connections, reads one
// size-prefixed frame at a time off each, and answers every request on
// that connection strictly in order before reading the next one.
type Broker struct {
	cfg   Config
	store Storage
	coord Coordinator
	tel   *telemetry.Telemetry
	log   blog.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewBroker wires a Broker against its Storage/Coordinator collaborators.
func NewBroker(cfg Config, store Storage, coord Coordinator, tel *telemetry.Telemetry, log blog.Logger) *Broker {
	return &Broker{
		cfg:   cfg,
		store: store,
		coord: coord,
		tel:   tel,
		log:   log,
		quit:  make(chan struct{}),
	}
}

// Start binds the listener and accepts connections until Stop is called.
func (b *Broker) Start() error {
	ln, err := net.Listen("tcp", b.cfg.ListenAddr)
	if err != nil {
		return err
	}

	b.log.Info().Str("addr", b.cfg.ListenAddr).Msg("listener bound")

	go func() {
		<-b.quit
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-b.quit:
				return nil
			default:
				b.log.Warn().Err(err).Msg("accept error")
				continue
			}
		}

		b.wg.Add(1)
		go b.handleConnection(conn)
	}
}

// Stop closes the listener and waits for every connection task to drain.
func (b *Broker) Stop() {
	close(b.quit)
	b.wg.Wait()
}

// isTransientDisconnect reports whether err is an ordinary peer-initiated
// or shutdown-initiated connection close, which the dispatch loop treats
// as silent termination rather than an error worth logging.
func isTransientDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func (b *Broker) handleConnection(conn net.Conn) {
	peer := conn.RemoteAddr().String()
	defer func() {
		conn.Close()
		b.wg.Done()
	}()

	for {
		body, pool, err := frame.ReadFrame(conn)
		if err != nil {
			if !isTransientDisconnect(err) {
				b.log.Warn().Str("peer", peer).Err(err).Msg("frame read error")
			}
			return
		}
		if body == nil {
			if pool != nil {
				frame.PutBuffer(pool)
			}
			continue
		}

		respBody, err := b.dispatch(context.Background(), peer, body)
		if pool != nil {
			frame.PutBuffer(pool)
		}
		if err != nil {
			b.log.Warn().Str("peer", peer).Err(err).Msg("dispatch error")
			return
		}

		if err := frame.WriteFrame(conn, respBody); err != nil {
			if !isTransientDisconnect(err) {
				b.log.Warn().Str("peer", peer).Err(err).Msg("frame write error")
			}
			return
		}
	}
}

// dispatch decodes the request header, routes to the per-API handler, and
// re-encodes the response header. The per-API handlers never see the
// header: they take the decoded request body and return only the response
// body bytes, keeping the header/correlation-id bookkeeping in one place.
func (b *Broker) dispatch(ctx context.Context, peer string, body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, errors.New("broker: frame shorter than a request header")
	}
	apiKey := frame.ApiKey(int16(binary.BigEndian.Uint16(body[0:2])))
	apiVersion := int16(binary.BigEndian.Uint16(body[2:4]))
	reqFlexible := apiKey.IsFlexible(apiVersion)

	r := kbin.NewReader(body)
	hdr := frame.DecodeRequestHeader(r, reqFlexible)

	spec, known := frame.Registry[apiKey]
	apiName := "Unknown"
	if known {
		apiName = spec.Name
	}

	attrs := telemetry.RequestAttrs{
		APIKey:        int16(apiKey),
		APIVersion:    apiVersion,
		CorrelationID: hdr.CorrelationID,
		APIName:       apiName,
		ClusterID:     b.cfg.ClusterID,
		Peer:          peer,
		Extra:         requestExtraAttrs(apiKey, apiVersion, r.Remaining()),
	}
	ctx, finish := b.tel.StartRequest(ctx, attrs, len(body))

	respBody, handleErr := b.handleRequest(ctx, peer, hdr, apiKey, apiVersion, r)
	finish(len(respBody), handleErr)
	if handleErr != nil {
		return nil, handleErr
	}

	// Per the convention documented on frame.ResponseHeader, an ApiVersions
	// response never carries the tagged-fields section, even when the
	// request came in at a flexible version: a client negotiating
	// versions cannot yet know whether the broker speaks the flexible
	// response header.
	respFlexible := reqFlexible && apiKey != frame.ApiVersions
	w := kbin.NewWriter(nil)
	frame.ResponseHeader{CorrelationID: hdr.CorrelationID}.Encode(w, respFlexible)
	w.Append(respBody)
	return w.Bytes(), nil
}
