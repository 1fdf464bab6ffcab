package api

import (
	"fmt"

	"github.com/rickgao/deribit-marks/internal/connection"
	"github.com/rickgao/deribit-marks/internal/model"
)

// SettlementType selects settlement events, excluding deliveries and bankruptcies.
const SettlementType = "settlement"

// Sender queues a request without waiting for the response.
type Sender interface {
	Send(key, method string, params any) error
}

// QueueSettlements queues a settlement history request that searches backwards
// from searchStart (ms). The response is stored under key when drained.
func QueueSettlements(p Sender, key, instrument string, searchStart int64, count int) error {
	params := SettlementParams{
		InstrumentName:       instrument,
		Type:                 SettlementType,
		Count:                count,
		SearchStartTimestamp: searchStart,
	}
	if err := p.Send(key, MethodLastSettlements, params); err != nil {
		return fmt.Errorf("queue settlements %s: %w", key, err)
	}
	return nil
}

// DecodeSettlements decodes a drained settlement response. It returns the
// usable points and the raw number of events the exchange sent.
func DecodeSettlements(resp connection.Response) ([]model.SettlementPoint, int, error) {
	var result SettlementsResult
	if err := resp.Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("decode settlements: %w", err)
	}
	return ToSettlementPoints(result.Settlements), len(result.Settlements), nil
}
