package hashx

import "testing"

func TestSum_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{
			name: "empty",
			in:   nil,
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "abc",
			in:   []byte("abc"),
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sum(tc.in); got != tc.want {
				t.Fatalf("Sum(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestSum_Deterministic(t *testing.T) {
	b := []byte("report.pdf contents")
	if Sum(b) != Sum(b) {
		t.Fatal("digest is not deterministic")
	}
}
