package journal

import (
	"fmt"
	"testing"
	"time"
)

func openTestJournal(t *testing.T, name string) *Journal {
	j, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t, "record")
	now := time.Now()
	for i := 0; i < 3; i++ {
		err := j.Record(Entry{
			Time:        now.Add(time.Duration(i) * time.Second),
			Client:      "127.0.0.1",
			Method:      "GET",
			URL:         fmt.Sprintf("http://example.com/%d", i),
			Status:      200,
			CacheStatus: "ProxyServer; hit",
			Bytes:       int64(10 * i),
			Duration:    time.Millisecond,
		})
		if err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	entries, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Got %d entries", len(entries))
	}
	if entries[0].URL != "http://example.com/2" || entries[1].URL != "http://example.com/1" {
		t.Fatalf("Entries not newest first: %s, %s", entries[0].URL, entries[1].URL)
	}
	if entries[0].Bytes != 20 || entries[0].Duration != time.Millisecond || entries[0].Status != 200 {
		t.Fatalf("Entry fields unexpected: %+v", entries[0])
	}
	if !entries[0].Time.Equal(now.Add(2 * time.Second)) {
		t.Fatalf("Time is %s", entries[0].Time)
	}
}

func TestForURL(t *testing.T) {
	j := openTestJournal(t, "forurl")
	j.Record(Entry{URL: "http://a/", Method: "GET", Status: 200})
	j.Record(Entry{URL: "http://b/", Method: "GET", Status: 404, Error: "not found"})
	j.Record(Entry{URL: "http://a/", Method: "GET", Status: 200})

	entries, err := j.ForURL("http://b/", 10)
	if err != nil {
		t.Fatalf("ForURL error: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != 404 || entries[0].Error != "not found" {
		t.Fatalf("Entries: %+v", entries)
	}
	if entries, _ := j.ForURL("http://a/", 10); len(entries) != 2 {
		t.Fatalf("Got %d entries for a", len(entries))
	}
}
