package transcript

import "testing"

func TestVideoID(t *testing.T) {
	cases := []struct {
		ref  string
		want string
	}{
		{"abc123XYZ_-", "abc123XYZ_-"},
		{"https://youtu.be/abc123", "abc123"},
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://www.youtube.com/watch?v=abc123&t=42s", "abc123"},
		{"https://www.youtube.com/embed/abc123", "abc123"},
		{"https://www.youtube.com/shorts/abc123", "abc123"},
	}
	for _, tc := range cases {
		got, err := VideoID(tc.ref)
		if err != nil {
			t.Errorf("VideoID(%q): %v", tc.ref, err)
			continue
		}
		if got != tc.want {
			t.Errorf("VideoID(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestVideoIDErrors(t *testing.T) {
	for _, ref := range []string{"", "https://youtu.be/", "https://www.youtube.com/feed/library"} {
		if _, err := VideoID(ref); err == nil {
			t.Errorf("VideoID(%q) should fail", ref)
		}
	}
}
