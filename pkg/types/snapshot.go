package types

import "time"

// Snapshot is a row in the snapshot store keyed by (ticker, timestamp),
// computed from a TopOfBook at capture time.
type Snapshot struct {
	ID             int64     `json:"id,omitempty"`
	Ticker         string    `json:"ticker"`
	Timestamp      time.Time `json:"ts"`
	LastPrice      float64   `json:"last_price"`
	Bid            float64   `json:"bid"`
	Ask            float64   `json:"ask"`
	Mid            float64   `json:"mid"`
	Spread         float64   `json:"spread"`
	Volume24h      float64   `json:"volume_24h"`
	BidDepth       int       `json:"bid_depth"`
	AskDepth       int       `json:"ask_depth"`
	DepthImbalance float64   `json:"depth_imbalance"`
	OrderbookJSON  []byte    `json:"orderbook_json,omitempty"`
}

// SnapshotFromTopOfBook computes a Snapshot from the current top-of-book at
// capture time, matching the field derivations documented for the
// snapshotter.
func SnapshotFromTopOfBook(book *TopOfBook, lastPrice, volume24h float64, fullBook []byte) *Snapshot {
	bidDepth := book.YesBidSize
	askDepth := book.YesAskSize
	total := bidDepth + askDepth
	if total < 1 {
		total = 1
	}
	return &Snapshot{
		Ticker:         book.Ticker,
		Timestamp:      book.CapturedAt,
		LastPrice:      lastPrice,
		Bid:            book.YesBid * 100,
		Ask:            book.YesAsk * 100,
		Mid:            book.Mid(),
		Spread:         book.SpreadCents(),
		Volume24h:      volume24h,
		BidDepth:       bidDepth,
		AskDepth:       askDepth,
		DepthImbalance: float64(bidDepth-askDepth) / float64(total),
		OrderbookJSON:  fullBook,
	}
}
