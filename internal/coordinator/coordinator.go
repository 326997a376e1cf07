// Package coordinator is a single-node, in-memory implementation of the
// broker's Coordinator interface (spec.md §6): group membership,
// partition assignment handoff between JoinGroup and SyncGroup, and
// per-group offset commit/fetch.
package coordinator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/shake-karrot/kafkabroker/internal/domain"
	"github.com/shake-karrot/kafkabroker/internal/kerr"
)

// state is a consumer group's lifecycle stage, mirroring the subset of
// Kafka's own group states a single-node coordinator needs to expose
// through DescribeGroups/ListGroups.
type state string

const (
	stateEmpty               state = "Empty"
	statePreparingRebalance  state = "PreparingRebalance"
	stateCompletingRebalance state = "CompletingRebalance"
	stateStable              state = "Stable"
	stateDead                state = "Dead"
)

type member struct {
	id              string
	groupInstanceID *string
	clientID        string
	clientHost      string
	protocols       []domain.GroupProtocol
	assignment      []byte
}

// group is one consumer group's full coordinator-side state, guarded by
// its own mutex so concurrent groups never contend with each other.
type group struct {
	mu sync.Mutex

	id           string
	protocolType string
	protocolName string
	state        state
	generationID int32
	leaderID     string
	members      map[string]*member

	offsets map[domain.Topition]domain.OffsetAndMetadata
}

func newGroup(id string) *group {
	return &group{
		id:      id,
		state:   stateEmpty,
		members: make(map[string]*member),
		offsets: make(map[domain.Topition]domain.OffsetAndMetadata),
	}
}

// pickProtocol chooses the first protocol name every current member
// offers in common, preferring the order the group's first member (its
// leader) listed them in — the same "intersection, first-listed wins" rule
// real Kafka coordinators use.
func (g *group) pickProtocol() string {
	if len(g.members) == 0 {
		return ""
	}
	first, ok := g.members[g.leaderID]
	if !ok {
		for _, m := range g.members {
			first = m
			break
		}
	}
	for _, candidate := range first.protocols {
		supported := true
		for _, m := range g.members {
			found := false
			for _, p := range m.protocols {
				if p.Name == candidate.Name {
					found = true
					break
				}
			}
			if !found {
				supported = false
				break
			}
		}
		if supported {
			return candidate.Name
		}
	}
	return first.protocols[0].Name
}

// Coordinator is the broker's in-process group coordinator. A
// *Coordinator is a cheap handle safe to share across every connection
// task.
type Coordinator struct {
	mu     sync.Mutex
	groups map[string]*group
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{groups: make(map[string]*group)}
}

func (c *Coordinator) group(id string) *group {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[id]
	if !ok {
		g = newGroup(id)
		c.groups[id] = g
	}
	return g
}

// Join adds or rejoins a member and, since this coordinator runs each
// JoinGroup to completion synchronously rather than holding the request
// open across a rebalance timeout, immediately re-forms the group and
// returns the new generation.
func (c *Coordinator) Join(in domain.JoinGroupInput) domain.JoinGroupOutput {
	g := c.group(in.GroupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.protocolType == "" {
		g.protocolType = in.ProtocolType
	} else if g.protocolType != in.ProtocolType && len(g.members) > 0 {
		return domain.JoinGroupOutput{Err: kerr.InconsistentGroupProtocol}
	}

	memberID := in.MemberID
	if memberID == "" {
		memberID = in.GroupID + "-" + uuid.NewString()
	}

	g.members[memberID] = &member{
		id:              memberID,
		groupInstanceID: in.GroupInstanceID,
		clientID:        in.ClientID,
		clientHost:      in.ClientHost,
		protocols:       in.Protocols,
	}

	g.state = statePreparingRebalance
	g.generationID++
	if g.leaderID == "" {
		g.leaderID = memberID
	}
	g.protocolName = g.pickProtocol()
	g.state = stateCompletingRebalance

	out := domain.JoinGroupOutput{
		GenerationID: g.generationID,
		ProtocolType: g.protocolType,
		ProtocolName: g.protocolName,
		LeaderID:     g.leaderID,
		MemberID:     memberID,
	}
	if memberID == g.leaderID {
		out.Members = make([]domain.JoinGroupMember, 0, len(g.members))
		for _, m := range g.members {
			out.Members = append(out.Members, domain.JoinGroupMember{
				MemberID:        m.id,
				GroupInstanceID: m.groupInstanceID,
				Metadata:        protocolMetadata(m, g.protocolName),
			})
		}
	}
	return out
}

func protocolMetadata(m *member, protocolName string) []byte {
	for _, p := range m.protocols {
		if p.Name == protocolName {
			return p.Metadata
		}
	}
	return nil
}

// Sync receives the leader's per-member assignment (or, for a
// non-leader call with no assignments, simply waits on one already
// delivered) and returns the calling member's resolved assignment.
func (c *Coordinator) Sync(in domain.SyncGroupInput) domain.SyncGroupOutput {
	g := c.group(in.GroupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.members[in.MemberID]
	if !ok {
		return domain.SyncGroupOutput{Err: kerr.UnknownMemberID}
	}
	if in.GenerationID != g.generationID {
		return domain.SyncGroupOutput{Err: kerr.IllegalGeneration}
	}

	if len(in.Assignments) > 0 {
		for _, a := range in.Assignments {
			if target, ok := g.members[a.MemberID]; ok {
				target.assignment = a.Assignment
			}
		}
		g.state = stateStable
	}

	return domain.SyncGroupOutput{
		ProtocolType: g.protocolType,
		ProtocolName: g.protocolName,
		Assignment:   m.assignment,
	}
}

// Heartbeat validates that memberID is still current for generationID.
func (c *Coordinator) Heartbeat(groupID, memberID string, generationID int32) kerr.Code {
	g := c.group(groupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.members[memberID]; !ok {
		return kerr.UnknownMemberID
	}
	if generationID != g.generationID {
		return kerr.IllegalGeneration
	}
	if g.state == statePreparingRebalance {
		return kerr.RebalanceInProgress
	}
	return kerr.None
}

// Leave removes the named members from a group, triggering a new
// generation for whoever remains.
func (c *Coordinator) Leave(groupID string, members []domain.LeaveMember) []kerr.Code {
	g := c.group(groupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]kerr.Code, len(members))
	for i, lm := range members {
		if _, ok := g.members[lm.MemberID]; !ok {
			out[i] = kerr.UnknownMemberID
			continue
		}
		delete(g.members, lm.MemberID)
		out[i] = kerr.None
	}

	if len(g.members) == 0 {
		g.state = stateEmpty
		g.leaderID = ""
	} else {
		g.generationID++
		g.state = statePreparingRebalance
	}
	return out
}

// OffsetCommit records committed offsets for a group.
func (c *Coordinator) OffsetCommit(groupID string, offsets map[domain.Topition]domain.OffsetAndMetadata) {
	g := c.group(groupID)
	g.mu.Lock()
	defer g.mu.Unlock()
	for top, oam := range offsets {
		g.offsets[top] = oam
	}
}

// OffsetFetch returns committed offsets for the named topic-partitions,
// or every committed offset when tops is nil.
func (c *Coordinator) OffsetFetch(groupID string, tops []domain.Topition) map[domain.Topition]domain.OffsetAndMetadata {
	g := c.group(groupID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if tops == nil {
		out := make(map[domain.Topition]domain.OffsetAndMetadata, len(g.offsets))
		for k, v := range g.offsets {
			out[k] = v
		}
		return out
	}
	out := make(map[domain.Topition]domain.OffsetAndMetadata, len(tops))
	for _, top := range tops {
		if oam, ok := g.offsets[top]; ok {
			out[top] = oam
		} else {
			out[top] = domain.OffsetAndMetadata{Partition: top.Partition, Offset: -1}
		}
	}
	return out
}

// List returns a summary row for every known group.
func (c *Coordinator) List(statesFilter []string) []domain.GroupListing {
	c.mu.Lock()
	groups := make([]*group, 0, len(c.groups))
	for _, g := range c.groups {
		groups = append(groups, g)
	}
	c.mu.Unlock()

	allowed := make(map[string]bool, len(statesFilter))
	for _, s := range statesFilter {
		allowed[s] = true
	}

	out := make([]domain.GroupListing, 0, len(groups))
	for _, g := range groups {
		g.mu.Lock()
		s := string(g.state)
		if len(allowed) == 0 || allowed[s] {
			out = append(out, domain.GroupListing{GroupID: g.id, ProtocolType: g.protocolType, State: s})
		}
		g.mu.Unlock()
	}
	return out
}

// Describe returns full state for the named groups.
func (c *Coordinator) Describe(groupIDs []string) []domain.GroupDescription {
	out := make([]domain.GroupDescription, 0, len(groupIDs))
	for _, id := range groupIDs {
		g := c.group(id)
		g.mu.Lock()
		members := make([]domain.GroupMember, 0, len(g.members))
		for _, m := range g.members {
			members = append(members, domain.GroupMember{
				MemberID:        m.id,
				GroupInstanceID: m.groupInstanceID,
				ClientID:        m.clientID,
				ClientHost:      m.clientHost,
				Metadata:        protocolMetadata(m, g.protocolName),
				Assignment:      m.assignment,
			})
		}
		out = append(out, domain.GroupDescription{
			GroupID:      g.id,
			State:        string(g.state),
			ProtocolType: g.protocolType,
			Protocol:     g.protocolName,
			Members:      members,
		})
		g.mu.Unlock()
	}
	return out
}

// Delete removes groups that have no members, reporting
// kerr.InvalidRequest for groups that still have members and
// kerr.GroupIDNotFound for unknown ones.
func (c *Coordinator) Delete(groupIDs []string) map[string]kerr.Code {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]kerr.Code, len(groupIDs))
	for _, id := range groupIDs {
		g, ok := c.groups[id]
		if !ok {
			out[id] = kerr.GroupIDNotFound
			continue
		}
		g.mu.Lock()
		empty := len(g.members) == 0
		g.mu.Unlock()
		if !empty {
			out[id] = kerr.InvalidRequest
			continue
		}
		delete(c.groups, id)
		out[id] = kerr.None
	}
	return out
}
