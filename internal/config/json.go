package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk shape of the JSON config file.
type StructuredJSONConfig struct {
	Adapter struct {
		HTTPAddress    string   `json:"address"`
		RequestTimeout Duration `json:"request_timeout"`
		Token          string   `json:"token"`
	} `json:"adapter,omitempty"`

	Transport struct {
		PushAddress     string   `json:"push_address"`
		DialTimeout     Duration `json:"dial_timeout"`
		MaxPending      int      `json:"max_pending"`
		MaxMessageBytes int64    `json:"max_message_bytes"`
	} `json:"transport,omitempty"`

	Sync struct {
		ReloadInterval Duration `json:"reload_interval"`
		EagerUpdate    bool     `json:"eager_update"`
	} `json:"sync,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"address"`
		RequestTimeout Duration `json:"request_timeout"`
		TokenSignKey   string   `json:"token_sign_key"`
		TokenIssuer    string   `json:"token_issuer"`
	} `json:"server,omitempty"`

	Collections []Collection `json:"collections,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			Token:          jsonCfg.Adapter.Token,
		},
		Transport: Transport{
			PushAddress:     jsonCfg.Transport.PushAddress,
			DialTimeout:     time.Duration(jsonCfg.Transport.DialTimeout),
			MaxPending:      jsonCfg.Transport.MaxPending,
			MaxMessageBytes: jsonCfg.Transport.MaxMessageBytes,
		},
		Sync: Sync{
			ReloadInterval: time.Duration(jsonCfg.Sync.ReloadInterval),
			EagerUpdate:    jsonCfg.Sync.EagerUpdate,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			TokenSignKey:   jsonCfg.Server.TokenSignKey,
			TokenIssuer:    jsonCfg.Server.TokenIssuer,
		},
		Collections: jsonCfg.Collections,
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
