// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/db"
	"github.com/toeirei/tapscan/internal/scan"
)

type walletView struct {
	Curve     string `json:"curve" yaml:"curve"`
	PublicKey string `json:"public_key" yaml:"public_key"`
	ChainCode string `json:"chain_code,omitempty" yaml:"chain_code,omitempty"`
}

type tokenView struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Contract string `json:"contract,omitempty" yaml:"contract,omitempty"`
	Decimals int    `json:"decimals,omitempty" yaml:"decimals,omitempty"`
}

type walletDataView struct {
	Blockchain string     `json:"blockchain" yaml:"blockchain"`
	Token      *tokenView `json:"token,omitempty" yaml:"token,omitempty"`
}

type twinView struct {
	Series        string `json:"series" yaml:"series"`
	Pair          string `json:"pair_series" yaml:"pair_series"`
	PairPublicKey string `json:"pair_public_key,omitempty" yaml:"pair_public_key,omitempty"`
}

type derivedKeyView struct {
	Wallet    string `json:"wallet" yaml:"wallet"`
	Path      string `json:"path" yaml:"path"`
	PublicKey string `json:"public_key" yaml:"public_key"`
	ChainCode string `json:"chain_code,omitempty" yaml:"chain_code,omitempty"`
}

type primaryCardView struct {
	CardID     string `json:"card_id" yaml:"card_id"`
	LinkingKey string `json:"linking_key" yaml:"linking_key"`
	Wallets    int    `json:"existing_wallets" yaml:"existing_wallets"`
}

// outcomeView is the printable form of a scan outcome.
type outcomeView struct {
	CardID        string           `json:"card_id" yaml:"card_id"`
	BatchID       string           `json:"batch_id" yaml:"batch_id"`
	Firmware      string           `json:"firmware" yaml:"firmware"`
	Class         string           `json:"card_class" yaml:"card_class"`
	Issuer        string           `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Backup        string           `json:"backup_status,omitempty" yaml:"backup_status,omitempty"`
	Wallets       []walletView     `json:"wallets" yaml:"wallets"`
	WalletData    *walletDataView  `json:"wallet_data,omitempty" yaml:"wallet_data,omitempty"`
	Twin          *twinView        `json:"twin,omitempty" yaml:"twin,omitempty"`
	DerivedKeys   []derivedKeyView `json:"derived_keys,omitempty" yaml:"derived_keys,omitempty"`
	PrimaryCard   *primaryCardView `json:"primary_card,omitempty" yaml:"primary_card,omitempty"`
	Attestation   string           `json:"attestation" yaml:"attestation"`
	Mode          string           `json:"attestation_mode" yaml:"attestation_mode"`
	OnlineRetries int              `json:"online_retries,omitempty" yaml:"online_retries,omitempty"`
}

func newOutcomeView(out *scan.Outcome) outcomeView {
	c := out.Card
	v := outcomeView{
		CardID:        c.ID,
		BatchID:       c.BatchID,
		Firmware:      c.Firmware.String(),
		Class:         db.ClassOf(out),
		Issuer:        c.Issuer.Name,
		Backup:        string(c.BackupStatus),
		Attestation:   out.Attestation.Status.String(),
		Mode:          out.Attestation.Mode.String(),
		OnlineRetries: out.OnlineRetries,
	}
	for _, w := range c.Wallets {
		v.Wallets = append(v.Wallets, walletView{
			Curve:     string(w.Curve),
			PublicKey: hex.EncodeToString(w.PublicKey),
			ChainCode: hex.EncodeToString(w.ChainCode),
		})
	}
	if wd := out.WalletData; wd != nil {
		v.WalletData = &walletDataView{Blockchain: wd.Blockchain}
		if t := wd.Token; t != nil {
			v.WalletData.Token = &tokenView{Name: t.Name, Symbol: t.Symbol, Contract: t.ContractAddress, Decimals: t.Decimals}
		}
	}
	if info, ok := out.TwinInfo(); ok {
		v.Twin = &twinView{Series: info.Series.Prefix, Pair: info.Series.Pair, PairPublicKey: hex.EncodeToString(info.PairPublicKey)}
	}
	wallets := make([]string, 0, len(out.DerivedKeys))
	for w := range out.DerivedKeys {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	for _, w := range wallets {
		for _, k := range out.DerivedKeys[w] {
			v.DerivedKeys = append(v.DerivedKeys, derivedKeyView{
				Wallet:    w,
				Path:      k.Path.String(),
				PublicKey: hex.EncodeToString(k.Key.PublicKey),
				ChainCode: hex.EncodeToString(k.Key.ChainCode),
			})
		}
	}
	if p := out.PrimaryCard; p != nil {
		v.PrimaryCard = &primaryCardView{CardID: p.CardID, LinkingKey: hex.EncodeToString(p.LinkingKey), Wallets: p.ExistingWallets}
	}
	return v
}

// render writes v to w as YAML or JSON.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func curveNames(curves []card.Curve) []string {
	out := make([]string, len(curves))
	for i, c := range curves {
		out[i] = string(c)
	}
	return out
}
