package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agromarket-api/internal/domain"
)

type fakeWeChat struct {
	tokenCalls atomic.Int32
	phoneCalls atomic.Int32
	// phoneErrCode errcode de la primera llamada a getuserphonenumber.
	phoneErrCode int
}

func (f *fakeWeChat) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.Equal(t, "wxapp", r.URL.Query().Get("appid"))
		assert.Equal(t, "client_credential", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":7200}`))
	})
	mux.HandleFunc("/wxa/business/getuserphonenumber", func(w http.ResponseWriter, r *http.Request) {
		n := f.phoneCalls.Add(1)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if n == 1 && f.phoneErrCode != 0 {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"errcode": f.phoneErrCode, "errmsg": "error"})
			return
		}
		if body["code"] == "malo" {
			_, _ = w.Write([]byte(`{"errcode":40029,"errmsg":"invalid code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"errcode":0,"errmsg":"ok","phone_info":{"phoneNumber":"13800000009","purePhoneNumber":"13800000009","countryCode":"86"}}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeWeChat) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{AppID: "wxapp", AppSecret: "s", BaseURL: srv.URL}, zerolog.Nop())
}

func TestResolvePhone_CachesAccessToken(t *testing.T) {
	f := &fakeWeChat{}
	c := newTestClient(t, f)

	for i := 0; i < 2; i++ {
		phone, err := c.ResolvePhone(context.Background(), "bueno")
		require.NoError(t, err)
		assert.Equal(t, "13800000009", phone)
	}
	assert.Equal(t, int32(1), f.tokenCalls.Load())
	assert.Equal(t, int32(2), f.phoneCalls.Load())
}

func TestResolvePhone_RejectedCodeIsInvalidInput(t *testing.T) {
	c := newTestClient(t, &fakeWeChat{})

	_, err := c.ResolvePhone(context.Background(), "malo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestResolvePhone_RefreshesExpiredToken(t *testing.T) {
	f := &fakeWeChat{phoneErrCode: errExpiredToken}
	c := newTestClient(t, f)

	phone, err := c.ResolvePhone(context.Background(), "bueno")
	require.NoError(t, err)
	assert.Equal(t, "13800000009", phone)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestResolvePhone_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, zerolog.Nop())

	_, err := c.ResolvePhone(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
