package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://teaboard.gov.in/news/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://teaboard.gov.in/news/1/") {
		t.Error("trailing slash variant should count as a duplicate")
	}
	if s.Add("https://teaboard.gov.in/news/1#comments") {
		t.Error("fragment variant should count as a duplicate")
	}
	if s.Add("   ") {
		t.Error("blank URL should never be added")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
	if !s.Contains("https://teaboard.gov.in/news/1") {
		t.Error("Contains should report the stored URL")
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("https://atbltd.com/Docs/auctionprices") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
