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

package remote

import (
	"testing"
	"time"

	"bennypowers.dev/malla/internal/mapfs"
)

func TestDiskCache(t *testing.T) {
	mfs := mapfs.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewDiskCache(mfs, "/cache/reports", time.Hour)
	cache.now = func() time.Time { return now }

	if _, ok := cache.Get("abc"); ok {
		t.Error("Expected miss on empty cache")
	}

	body := []byte(`{"diagnostics":[]}`)
	if err := cache.Put("abc", body); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get("abc")
	if !ok || string(got) != string(body) {
		t.Errorf("Get = %q, %v; expected %q", got, ok, body)
	}

	files := mfs.Files("/cache/reports")
	if len(files) != 1 || files[0] != "cache/reports/abc.mp" {
		t.Errorf("Expected only the renamed entry on disk, got %v", files)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := cache.Get("abc"); ok {
		t.Error("Expected entry older than maxAge to miss")
	}

	if err := cache.Drop("abc"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if err := cache.Drop("abc"); err != nil {
		t.Errorf("Dropping a missing entry should not fail: %v", err)
	}
}

func TestDiskCacheRejectsCorruptEntries(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/cache/abc.mp", "not msgpack", 0644)
	cache := NewDiskCache(mfs, "/cache", 0)

	if _, ok := cache.Get("abc"); ok {
		t.Error("Expected corrupt entry to miss")
	}

	if err := cache.Put("def", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, err := mfs.ReadFile("/cache/def.mp")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	mfs.AddFile("/cache/abc.mp", string(data), 0644)
	if _, ok := cache.Get("abc"); ok {
		t.Error("Expected entry written for another fingerprint to miss")
	}
}

func TestNilDiskCache(t *testing.T) {
	var cache *DiskCache
	if _, ok := cache.Get("abc"); ok {
		t.Error("nil cache should always miss")
	}
	if err := cache.Put("abc", nil); err != nil {
		t.Errorf("nil cache Put should be a no-op, got %v", err)
	}
}
