package coordinator

import (
	"testing"

	"github.com/shake-karrot/kafkabroker/internal/domain"
)

func TestJoinElectsLeaderAndAssignsGeneration(t *testing.T) {
	c := New()
	out := c.Join(domain.JoinGroupInput{
		GroupID:      "g1",
		ProtocolType: "consumer",
		Protocols:    []domain.GroupProtocol{{Name: "range", Metadata: []byte{1}}},
	})
	if out.Err.Value != 0 {
		t.Fatalf("join: %+v", out.Err)
	}
	if out.MemberID == "" {
		t.Fatal("expected a generated member id")
	}
	if out.LeaderID != out.MemberID {
		t.Fatalf("first joiner should be leader: leader=%s member=%s", out.LeaderID, out.MemberID)
	}
	if out.GenerationID != 1 {
		t.Fatalf("expected generation 1, got %d", out.GenerationID)
	}
	if len(out.Members) != 1 {
		t.Fatalf("expected leader to see 1 member, got %d", len(out.Members))
	}
}

func TestSyncDeliversLeaderAssignment(t *testing.T) {
	c := New()
	join := c.Join(domain.JoinGroupInput{
		GroupID:      "g1",
		ProtocolType: "consumer",
		Protocols:    []domain.GroupProtocol{{Name: "range"}},
	})

	assignment := []byte{9, 9}
	sync := c.Sync(domain.SyncGroupInput{
		GroupID:      "g1",
		MemberID:     join.MemberID,
		GenerationID: join.GenerationID,
		Assignments:  []domain.GroupAssignment{{MemberID: join.MemberID, Assignment: assignment}},
	})
	if sync.Err.Value != 0 {
		t.Fatalf("sync: %+v", sync.Err)
	}
	if string(sync.Assignment) != string(assignment) {
		t.Fatalf("expected assignment %v, got %v", assignment, sync.Assignment)
	}
}

func TestSyncRejectsStaleGeneration(t *testing.T) {
	c := New()
	join := c.Join(domain.JoinGroupInput{GroupID: "g1", ProtocolType: "consumer", Protocols: []domain.GroupProtocol{{Name: "range"}}})
	sync := c.Sync(domain.SyncGroupInput{GroupID: "g1", MemberID: join.MemberID, GenerationID: join.GenerationID + 1})
	if sync.Err.Value == 0 {
		t.Fatal("expected IllegalGeneration for a stale generation id")
	}
}

func TestHeartbeatUnknownMember(t *testing.T) {
	c := New()
	c.Join(domain.JoinGroupInput{GroupID: "g1", ProtocolType: "consumer", Protocols: []domain.GroupProtocol{{Name: "range"}}})
	if code := c.Heartbeat("g1", "ghost", 1); code.Value == 0 {
		t.Fatal("expected UnknownMemberID for an unregistered member")
	}
}

func TestLeaveEmptiesGroup(t *testing.T) {
	c := New()
	join := c.Join(domain.JoinGroupInput{GroupID: "g1", ProtocolType: "consumer", Protocols: []domain.GroupProtocol{{Name: "range"}}})
	codes := c.Leave("g1", []domain.LeaveMember{{MemberID: join.MemberID}})
	if codes[0].Value != 0 {
		t.Fatalf("leave: %+v", codes[0])
	}
	listing := c.List(nil)
	if len(listing) != 1 || listing[0].State != string(stateEmpty) {
		t.Fatalf("expected group to go Empty, got %+v", listing)
	}
}

func TestOffsetCommitFetchRoundTrip(t *testing.T) {
	c := New()
	top := domain.Topition{Topic: "orders", Partition: 0}
	c.OffsetCommit("g1", map[domain.Topition]domain.OffsetAndMetadata{top: {Partition: 0, Offset: 42}})

	got := c.OffsetFetch("g1", []domain.Topition{top})
	if got[top].Offset != 42 {
		t.Fatalf("expected offset 42, got %+v", got[top])
	}

	missing := domain.Topition{Topic: "orders", Partition: 1}
	got2 := c.OffsetFetch("g1", []domain.Topition{missing})
	if got2[missing].Offset != -1 {
		t.Fatalf("expected -1 for an uncommitted partition, got %+v", got2[missing])
	}
}

func TestDeleteRejectsNonEmptyGroup(t *testing.T) {
	c := New()
	c.Join(domain.JoinGroupInput{GroupID: "g1", ProtocolType: "consumer", Protocols: []domain.GroupProtocol{{Name: "range"}}})
	results := c.Delete([]string{"g1"})
	if results["g1"].Value == 0 {
		t.Fatal("expected deleting a non-empty group to fail")
	}
}
