package amqp

import (
	"encoding/json"
	"time"
)

// CompanySyncMessage asks the worker to refresh one company's market data.
// It carries only the symbol; the worker fetches the rest from the exchange.
type CompanySyncMessage struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCompanySyncMessage(symbol string) *CompanySyncMessage {
	return &CompanySyncMessage{
		Symbol:    symbol,
		Timestamp: time.Now(),
	}
}

func (m *CompanySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func CompanySyncMessageFromJSON(data []byte) (*CompanySyncMessage, error) {
	var msg CompanySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
