package snapshot

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"snapshotengine/src/database"
	"snapshotengine/src/database/migrations"
	"snapshotengine/src/model"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return strconv.Itoa(port)
}

func TestSnapshot_IngestsOverHTTP(t *testing.T) {
	db, err := database.Open(database.Config{
		Driver:          database.DriverSQLite,
		DatabaseURLMain: "file:snapshot_cmd?mode=memory&cache=shared",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		GormLogLevel:    1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, migrations.Provision(db))

	port := freePort(t)
	t.Setenv("PORT", port)

	s := &Snapshot{
		Log:    logrus.WithField("cmd", "snapshot"),
		DB:     db,
		Config: &Config{TimestampPrecision: "second"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%s", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthcheck")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(base+"/events", "application/json",
		strings.NewReader(`{"type":"eAccount.","data":{"gateway_name":"CTP","accountid":"001","balance":"1000"}}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	trade := `{"type":"eTrade.","data":{"gateway_name":"CTP","symbol":"rb2505","orderid":"O-1","direction":"long","price":3500,"volume":1}}`
	resp, err = http.Post(base+"/events", "application/json", strings.NewReader(trade))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Post(base+"/events", "application/json", strings.NewReader(trade))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// one malformed member, the other one is stored
	resp, err = http.Post(base+"/events", "application/json", strings.NewReader(`{"type":"ePosition.","data":[
		{"gateway_name":"CTP","symbol":"rb2505","exchange":"SHFE","direction":"long","volume":1,"price":3500,"pnl":0},
		{"gateway_name":"CTP","symbol":"","direction":"long","volume":1,"price":3500,"pnl":0}]}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var positions int64
	require.NoError(t, db.Model(&model.Position{}).Count(&positions).Error)
	require.EqualValues(t, 1, positions)

	var account model.Account
	require.NoError(t, db.Take(&account).Error)
	require.Equal(t, 1000.0, account.Balance)
	require.Zero(t, account.LastUpdateTime.Nanosecond())

	var history int64
	require.NoError(t, db.Model(&model.AccountHistory{}).Count(&history).Error)
	require.EqualValues(t, 1, history)

	cancel()
	require.NoError(t, <-done)
}
