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

package version

import "testing"

func TestFromGit(t *testing.T) {
	tests := []struct {
		tag, commit string
		dirty       bool
		expected    string
	}{
		{"unknown", "abc", false, "dev"},
		{"v0.2.0", "unknown", false, "dev"},
		{"v0.2.0", "0123456789abcdef", false, "v0.2.0-0123456"},
		{"v0.2.0-0123456", "0123456789abcdef", false, "v0.2.0-0123456"},
		{"v0.2.0", "abc", true, "v0.2.0-abc-dirty"},
	}
	for _, tt := range tests {
		if got := fromGit(tt.tag, tt.commit, tt.dirty); got != tt.expected {
			t.Errorf("fromGit(%q, %q, %v) = %q, expected %q", tt.tag, tt.commit, tt.dirty, got, tt.expected)
		}
	}
}

func TestGetVersionPrefersLdflags(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.0.0"
	if got := GetVersion(); got != "v1.0.0" {
		t.Errorf("GetVersion() = %q", got)
	}
	if got := GetBuildInfo().Version; got != "v1.0.0" {
		t.Errorf("GetBuildInfo().Version = %q", got)
	}
}
