package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

const _binanceBaseWsUrl = "wss://stream.binance.com:9443/ws"

// BinancePub streams public market data from Binance.
type BinancePub struct {
	wss *ws.WebSocket
}

func NewBinancePub(ctx context.Context) *BinancePub {
	return &BinancePub{
		wss: ws.New(ctx, _binanceBaseWsUrl),
	}
}

func (repo *BinancePub) Len() int {
	return repo.wss.Len()
}

func (repo *BinancePub) Close() {
	repo.wss.Close()
}

func (repo *BinancePub) StartWebsocket(ctx context.Context) error {
	if err := repo.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type BinanceSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type BinanceSubscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

func subscriberResponseParser(m ws.Message) (BinanceSubscribeResponse, bool) {
	var resp BinanceSubscribeResponse
	err := m.Unmarshal(&resp)
	return resp, err == nil
}

// SubscribeMiniTicker subscribes 'Individual Symbol Mini Ticker Stream' for
// every given symbol.
func (repo *BinancePub) SubscribeMiniTicker(ctx context.Context, symbols ...string) error {
	params := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		params = append(params, fmt.Sprintf("%s@miniTicker", strings.ToLower(symbol)))
	}

	appendIntoRegister := true
	if err := repo.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, ws *ws.WebSocket) error {
			payload := BinanceSubscribeRequest{
				Method: "SUBSCRIBE",
				Params: params,
				ID:     1,
			}

			if err := ws.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := subscriberResponseParser(m)
			if !ok || resp.ID != 1 {
				return false, nil
			}

			if resp.Result != nil {
				return false, errors.Errorf("subscribe and wait, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

// ObserveMiniTicker invokes handler for every mini ticker payload until the
// context is done or the process shuts down.
func (repo *BinancePub) ObserveMiniTicker(ctx context.Context, handler func(t BinanceMiniTicker)) (unsubscribe func()) {
	ch, cancel := repo.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				resp, ok := ws.ReadMessage[BinanceMiniTicker](m)
				if !ok || resp.EventType != "24hrMiniTicker" {
					continue
				}

				handler(resp)
			}
		}
	}()

	return cancel
}
