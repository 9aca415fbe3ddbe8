package form

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		want    Request
		wantErr bool
	}{
		{
			name: "add with all fields",
			values: map[string]string{
				KeyFormType: "add",
				KeyTitle:    "Norwegian Wood",
				KeyAuthor:   "Haruki Murakami",
				KeyImage:    "https://example.com/cover.jpg",
				KeyFormat:   "Paperback",
			},
			want: Add{
				Title:  "Norwegian Wood",
				Author: "Haruki Murakami",
				Image:  "https://example.com/cover.jpg",
				Format: "Paperback",
			},
		},
		{
			name: "add with title only",
			values: map[string]string{
				KeyFormType: "add",
				KeyTitle:    "Bare Item",
			},
			want: Add{Title: "Bare Item"},
		},
		{
			name: "add with empty title still decodes",
			values: map[string]string{
				KeyFormType: "add",
			},
			want: Add{},
		},
		{
			name: "search with keyword",
			values: map[string]string{
				KeyFormType: "search",
				KeyKeyword:  "test",
			},
			want: Search{Keyword: "test"},
		},
		{
			name: "search with reset flag",
			values: map[string]string{
				KeyFormType: "search",
				KeyReset:    "true",
				KeyKeyword:  "ignored",
			},
			want: SearchReset{},
		},
		{
			name: "search with empty keyword is a reset",
			values: map[string]string{
				KeyFormType: "search",
			},
			want: SearchReset{},
		},
		{
			name: "update point",
			values: map[string]string{
				KeyFormType: "update",
				KeyID:       "3",
				KeyPoint:    "5",
			},
			want: UpdatePoint{ID: "3", Point: "5"},
		},
		{
			name: "update point with junk values still decodes",
			values: map[string]string{
				KeyFormType: "update",
				KeyID:       "abc",
				KeyPoint:    "ten",
			},
			want: UpdatePoint{ID: "abc", Point: "ten"},
		},
		{
			name: "update field",
			values: map[string]string{
				KeyFormType: "updateField",
				KeyID:       "7",
				KeyField:    "author",
				KeyValue:    "New Author",
			},
			want: UpdateField{ID: "7", Field: "author", Value: "New Author"},
		},
		{
			name: "delete",
			values: map[string]string{
				KeyFormType: "delete",
				KeyID:       "2",
			},
			want: Delete{ID: "2"},
		},
		{
			name:    "missing form type",
			values:  map[string]string{KeyTitle: "Orphan"},
			wantErr: true,
		},
		{
			name: "unknown form type",
			values: map[string]string{
				KeyFormType: "upsert",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := Decode(tt.values)

			// Assert
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormType) {
					t.Errorf("Decode() error = %v, want ErrInvalidFormType", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"add", Add{Title: "Y", Author: "A", Image: "I", Format: "F"}},
		{"add title only", Add{Title: "Y"}},
		{"search", Search{Keyword: "test"}},
		{"search reset", SearchReset{}},
		{"update point", UpdatePoint{ID: "3", Point: "5"}},
		{"update field", UpdateField{ID: "7", Field: "title", Value: "Renamed"}},
		{"delete", Delete{ID: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			back, err := Decode(Encode(tt.req))

			// Assert
			if err != nil {
				t.Fatalf("Decode(Encode()) unexpected error: %v", err)
			}
			if !reflect.DeepEqual(back, tt.req) {
				t.Errorf("round-trip = %#v, want %#v", back, tt.req)
			}
		})
	}
}
