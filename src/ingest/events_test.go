package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"snapshotengine/src/model"
)

func TestDecodeEnvelope_AccountObjectOrList(t *testing.T) {
	evt, err := DecodeEnvelope([]byte(`{"type":"eAccount.","data":{"gateway_name":"CTP","accountid":"001","balance":"1000.5","frozen":0}}`))
	require.NoError(t, err)
	require.Equal(t, EventAccount, evt.Type)
	require.Len(t, evt.Accounts, 1)
	require.Equal(t, "1000.5", evt.Accounts[0].Balance.Decimal.String())
	require.True(t, evt.Accounts[0].Frozen.Valid)

	evt, err = DecodeEnvelope([]byte(`{"id":"e-1","type":"eAccount.","data":[
		{"gateway_name":"CTP","accountid":"001","balance":1},
		{"gateway_name":"CTP","accountid":"002","balance":2,"frozen":null}]}`))
	require.NoError(t, err)
	require.Equal(t, "e-1", evt.ID)
	require.Len(t, evt.Accounts, 2)
	require.False(t, evt.Accounts[1].Frozen.Valid)
}

func TestDecodeEnvelope_TradeAndTick(t *testing.T) {
	evt, err := DecodeEnvelope([]byte(`{"type":"eTrade.","data":{"gateway_name":"CTP","symbol":"rb2505","orderid":"O-1",
		"direction":"多","offset":"开","price":3500,"volume":1,"datetime":"2025-03-01T09:30:00+08:00"}}`))
	require.NoError(t, err)
	require.NotNil(t, evt.Trade)
	require.Equal(t, "O-1", evt.Trade.OrderID)
	require.True(t, evt.Trade.Datetime.Equal(time.Date(2025, 3, 1, 1, 30, 0, 0, time.UTC)))

	evt, err = DecodeEnvelope([]byte(`{"type":"eTick.","data":{"gateway_name":"CTP","symbol":"io2504-C-3900","underlying_price":3950,"implied_volatility":0.21}}`))
	require.NoError(t, err)
	require.NotNil(t, evt.Tick)
	require.Equal(t, "0.21", evt.Tick.ImpliedVolatility.Decimal.String())
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"type":`,
		"unknown type": `{"type":"eOrder.","data":{}}`,
		"missing data": `{"type":"eAccount."}`,
		"null data":    `{"type":"ePosition.","data":null}`,
		"bad numeric":  `{"type":"eAccount.","data":{"balance":"abc"}}`,
		"wrong shape":  `{"type":"eTrade.","data":[1,2]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(raw))
			require.ErrorIs(t, err, model.ErrMalformedPayload)
		})
	}
}
