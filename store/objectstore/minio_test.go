/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package objectstore

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"

	"bennypowers.dev/malla/store"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{Endpoint: "localhost:9000", Bucket: "plans", AccessKey: "malla", SecretKey: "secret"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing endpoint", Config{Bucket: "plans"}},
		{"missing bucket", Config{Endpoint: "localhost:9000"}},
		{"half credentials", Config{Endpoint: "localhost:9000", Bucket: "plans", AccessKey: "malla"}},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "localhost:9000", Bucket: "plans"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.EndpointURL().Host != "localhost:9000" {
		t.Errorf("unexpected endpoint %s", client.EndpointURL())
	}
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestObjectKeys(t *testing.T) {
	tests := []struct {
		prefix, id, key string
	}{
		{"", "student-1", "student-1.json"},
		{"plans", "student-1", "plans/student-1.json"},
		{"plans/2026", "a", "plans/2026/a.json"},
	}
	for _, tt := range tests {
		key := objectKey(tt.prefix, tt.id)
		if key != tt.key {
			t.Errorf("objectKey(%q, %q) = %q, expected %q", tt.prefix, tt.id, key, tt.key)
		}
		id, ok := idFromKey(tt.prefix, key)
		if !ok || id != tt.id {
			t.Errorf("idFromKey(%q, %q) = %q, %v", tt.prefix, key, id, ok)
		}
	}

	for _, key := range []string{"other/a.json", "plans/a.txt", "plans/nested/a.json"} {
		if id, ok := idFromKey("plans", key); ok {
			t.Errorf("idFromKey(plans, %q) = %q, expected no id", key, id)
		}
	}
}

func TestHandleNotFound(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	if err := handleNotFound(missing, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}
	if err := handleNotFound(denied, "a"); errors.Is(err, store.ErrNotFound) {
		t.Errorf("access denied should not be ErrNotFound: %v", err)
	}
}
