// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"testing"
)

func TestCastVoteRequestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int64
		wantErr bool
	}{
		{"number", `{"party_id":3}`, 3, false},
		{"numeric string", `{"party_id":"3"}`, 3, false},
		{"missing", `{}`, 0, false},
		{"null", `{"party_id":null}`, 0, false},
		{"word", `{"party_id":"three"}`, 0, true},
		{"empty string", `{"party_id":""}`, 0, true},
		{"fraction", `{"party_id":1.5}`, 0, true},
		{"not an object", `"3"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CastVoteRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
			if err == nil && req.PartyID != tt.want {
				t.Errorf("Unmarshal(%s) party_id = %d, want %d", tt.body, req.PartyID, tt.want)
			}
		})
	}
}
