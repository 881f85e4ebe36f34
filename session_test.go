package main

import (
	"testing"
	"time"
)

// discardClient swallows broadcasts
type discardClient struct{}

func (discardClient) SendJSON(interface{}) {}
func (discardClient) SendBinary([]byte)    {}

func TestResumeReturnsRunningSession(t *testing.T) {
	sm := NewSessionManager(nil, nil)
	defer sm.StopAll()

	sess, offline, err := sm.Resume(7)
	if err != nil {
		t.Fatal(err)
	}
	if offline != nil {
		t.Error("fresh session should not award offline income")
	}
	again, _, err := sm.Resume(7)
	if err != nil {
		t.Fatal(err)
	}
	if again != sess {
		t.Error("second resume should return the same session")
	}
}

func TestAttachWhileTickingIsSafe(t *testing.T) {
	sm := NewSessionManager(nil, nil)
	defer sm.StopAll()

	sess, _, err := sm.Resume(7)
	if err != nil {
		t.Fatal(err)
	}

	// Attach broadcasts from this goroutine while the session loop is
	// incrementing its tick counter; run long enough to overlap real ticks
	client := discardClient{}
	deadline := time.Now().Add(3 * TickInterval)
	for time.Now().Before(deadline) {
		sess.Attach(client)
		sess.Detach(client)
	}
}
