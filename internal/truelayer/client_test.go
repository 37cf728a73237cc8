package truelayer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountsJSON = `{"results":[
 {"account_id":"acc-1","display_name":"Current","currency":"GBP","provider":{"provider_id":"ob-monzo","display_name":"Monzo"}},
 {"account_id":"acc-2","display_name":"Joint","currency":"GBP","provider":{"provider_id":"ob-barclays","display_name":"Barclays"}}
]}`

const acc1JSON = `{"results":[
 {"transaction_id":"t1","timestamp":"2025-03-01T10:00:00+00:00","description":"NETFLIX.COM","amount":-9.99,
  "currency":"GBP","transaction_type":"DEBIT","transaction_category":"PURCHASE",
  "transaction_classification":["Entertainment","Streaming"],"merchant_name":"Netflix"},
 {"transaction_id":"t2","timestamp":"2025-03-02T10:00:00+00:00","description":"TESCO","amount":23.10,
  "currency":"gbp","transaction_type":"DEBIT","transaction_category":"PURCHASE"},
 {"transaction_id":"t3","timestamp":"not a time","description":"BROKEN","amount":-1,"currency":"GBP"}
]}`

const acc2JSON = `{"results":[
 {"transaction_id":"t4","timestamp":"2025-03-03T10:00:00Z","description":"SALARY","amount":2500,
  "currency":"GBP","transaction_type":"CREDIT","transaction_category":"CREDIT"}
]}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/data/v1/accounts":
			_, _ = io.WriteString(w, accountsJSON)
		case "/data/v1/accounts/acc-1/transactions":
			assert.Equal(t, "2025-03-01", r.URL.Query().Get("from"))
			assert.Equal(t, "2025-03-31", r.URL.Query().Get("to"))
			_, _ = io.WriteString(w, acc1JSON)
		case "/data/v1/accounts/acc-2/transactions":
			_, _ = io.WriteString(w, acc2JSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var (
	from = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestNewClient_NoToken(t *testing.T) {
	_, err := NewClient("", "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestAccounts(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok")
	require.NoError(t, err)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc-1", accounts[0].ID)
	assert.Equal(t, "Monzo", accounts[0].Provider.Name)
}

func TestAllTransactions(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok")
	require.NoError(t, err)

	txns, skipped, err := c.AllTransactions(context.Background(), from, to)
	require.NoError(t, err)

	require.Len(t, txns, 3)
	assert.Equal(t, "t1", txns[0].ID)
	assert.Equal(t, "Entertainment", txns[0].Category)
	assert.Equal(t, "Netflix", txns[0].MerchantName)
	assert.Equal(t, "-23.1", txns[1].Amount.String(), "DEBIT forced negative")
	assert.Equal(t, "GBP", txns[1].Currency)
	assert.Equal(t, "t4", txns[2].ID)
	assert.True(t, txns[2].Amount.IsPositive())

	require.Len(t, skipped, 1)
	assert.Equal(t, "t3", skipped[0].ID)
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "bad", WithRetries(3, time.Millisecond))
	require.NoError(t, err)

	_, err = c.Accounts(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, accountsJSON)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok", WithRetries(5, time.Millisecond))
	require.NoError(t, err)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDecodeTransactions_Invalid(t *testing.T) {
	_, _, err := DecodeTransactions(strings.NewReader("nope"))
	assert.Error(t, err)
}
