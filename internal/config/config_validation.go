// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

func (cfg *ClientConfig) validate() error {
	if strings.TrimSpace(cfg.Adapter.HTTPAddress) == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if !strings.HasPrefix(cfg.Transport.PushAddress, "ws://") && !strings.HasPrefix(cfg.Transport.PushAddress, "wss://") {
		return fmt.Errorf("%w: push address must be a ws:// or wss:// URL", ErrInvalidTransportConfigs)
	}
	if cfg.Transport.DialTimeout <= 0 || cfg.Transport.MaxPending < 0 {
		return ErrInvalidTransportConfigs
	}
	if cfg.Transport.MaxMessageBytes < -1 {
		return fmt.Errorf("%w: max message bytes must be positive or -1", ErrInvalidTransportConfigs)
	}

	if cfg.Sync.ReloadInterval < 0 {
		return ErrInvalidSyncConfigs
	}

	if len(cfg.Collections) == 0 {
		return fmt.Errorf("%w: no collections declared", ErrInvalidCollectionConfigs)
	}
	return validateCollections(cfg.Collections)
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}
	if cfg.MaxMessageBytes < -1 {
		return fmt.Errorf("%w: max message bytes must be positive or -1", ErrInvalidServerConfigs)
	}
	if cfg.TokenSignKey != "" && cfg.TokenIssuer == "" {
		return fmt.Errorf("%w: token issuer required with a sign key", ErrInvalidServerConfigs)
	}

	return validateCollections(cfg.Collections)
}

func validateCollections(collections []Collection) error {
	seen := make(map[string]struct{}, len(collections))
	for i, c := range collections {
		if c.Name == "" || c.EntityName == "" || c.EntityURI == "" {
			return fmt.Errorf("%w: collection #%d needs name, entity_name and entity_uri", ErrInvalidCollectionConfigs, i)
		}
		if (c.CollectionName == "") != (c.CollectionURI == "") {
			return fmt.Errorf("%w: collection %q needs both collection_name and collection_uri or neither", ErrInvalidCollectionConfigs, c.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate collection %q", ErrInvalidCollectionConfigs, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
