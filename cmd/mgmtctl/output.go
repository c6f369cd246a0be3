package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type exchange struct {
	Sent     []byte
	Received []byte
}

type exchangeJSON struct {
	Sent     string `json:"sent,omitempty"`
	Received string `json:"received"`
	Bytes    int    `json:"bytes"`
}

// parsePayload joins args and decodes them as hex. Spaces, colons and a 0x
// prefix are ignored, so "01 00 ff ff 00 00" and "0x0100:ffff:0000" both work.
func parsePayload(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("empty payload")
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex payload: %v", err)
	}
	return b, nil
}

func printExchange(w io.Writer, asJSON bool, x exchange) error {
	if asJSON {
		out, err := jsoniter.Marshal(exchangeJSON{
			Sent:     hex.EncodeToString(x.Sent),
			Received: hex.EncodeToString(x.Received),
			Bytes:    len(x.Received),
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", out)
		return err
	}

	if len(x.Sent) != 0 {
		if _, err := fmt.Fprintf(w, "mgmt < [% x]\n", x.Sent); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "mgmt > [% x] (%d bytes)\n", x.Received, len(x.Received))
	return err
}
