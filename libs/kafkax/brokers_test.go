package kafkax

import (
	"reflect"
	"testing"
)

func TestSplitBrokers(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"localhost:9092", []string{"localhost:9092"}},
		{"a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{" a:9092 , b:9092 ", []string{"a:9092", "b:9092"}},
		{"a:9092,,b:9092,", []string{"a:9092", "b:9092"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tc := range cases {
		if got := SplitBrokers(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitBrokers(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
