// Package wechat resuelve el teléfono de un usuario del mini programa a partir del código
// del botón getPhoneNumber.
package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/agromarket-api/internal/application/ports"
	"github.com/jhoicas/agromarket-api/internal/domain"
)

var _ ports.PhoneResolver = (*Client)(nil)

// DefaultBaseURL API pública de WeChat.
const DefaultBaseURL = "https://api.weixin.qq.com"

// errcode 40001/42001: access_token inválido o expirado.
const (
	errInvalidToken = 40001
	errExpiredToken = 42001
)

// ErrNotConfigured falta AppID o AppSecret.
var ErrNotConfigured = errors.New("wechat: WX_APP_ID y WX_APP_SECRET son obligatorios")

// Config credenciales del mini programa.
type Config struct {
	AppID     string
	AppSecret string
	BaseURL   string
	Timeout   time.Duration
}

type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type tokenResponse struct {
	apiError
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type phoneResponse struct {
	apiError
	PhoneInfo struct {
		PhoneNumber     string `json:"phoneNumber"`
		PurePhoneNumber string `json:"purePhoneNumber"`
		CountryCode     string `json:"countryCode"`
	} `json:"phone_info"`
}

// Client cliente del API de servidor de WeChat con caché del access_token.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	now  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClient construye el cliente.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.With().Str("component", "wechat").Logger(),
		now:  time.Now,
	}
}

// ResolvePhone canjea code por el número del usuario. Un rechazo de WeChat se devuelve como
// domain.ErrInvalidInput; un fallo de red o de configuración, tal cual.
func (c *Client) ResolvePhone(ctx context.Context, code string) (string, error) {
	if c.cfg.AppID == "" || c.cfg.AppSecret == "" {
		return "", ErrNotConfigured
	}
	res, err := c.userPhoneNumber(ctx, code)
	if err != nil {
		return "", err
	}
	if res.ErrCode == errInvalidToken || res.ErrCode == errExpiredToken {
		c.log.Debug().Int("errcode", res.ErrCode).Msg("access_token rechazado, se renueva")
		c.invalidate()
		if res, err = c.userPhoneNumber(ctx, code); err != nil {
			return "", err
		}
	}
	if res.ErrCode != 0 {
		return "", fmt.Errorf("%w: obtener teléfono: %s (%d)", domain.ErrInvalidInput, res.ErrMsg, res.ErrCode)
	}
	phone := res.PhoneInfo.PhoneNumber
	if phone == "" {
		phone = res.PhoneInfo.PurePhoneNumber
	}
	if phone == "" {
		return "", fmt.Errorf("%w: WeChat no devolvió teléfono", domain.ErrInvalidInput)
	}
	return phone, nil
}

func (c *Client) userPhoneNumber(ctx context.Context, code string) (*phoneResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return nil, err
	}
	endpoint := c.cfg.BaseURL + "/wxa/business/getuserphonenumber?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out phoneResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("wechat getuserphonenumber: %w", err)
	}
	return &out, nil
}

// accessToken devuelve el token en caché o pide uno nuevo. Se renueva un minuto antes de expirar.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", c.cfg.AppID)
	q.Set("secret", c.cfg.AppSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/cgi-bin/token?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var out tokenResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("wechat token: %w", err)
	}
	if out.ErrCode != 0 || out.AccessToken == "" {
		return "", fmt.Errorf("wechat token: %s (%d)", out.ErrMsg, out.ErrCode)
	}
	ttl := time.Duration(out.ExpiresIn)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Duration(out.ExpiresIn) * time.Second
	}
	c.token = out.AccessToken
	c.expires = c.now().Add(ttl)
	return c.token, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("estado HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
