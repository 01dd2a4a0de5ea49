package state

import (
	"fmt"
	"time"
)

type PacketId int

type Status string

const (
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusDropped   Status = "dropped"
)

// DropReason classifies terminal drops. Drops are first-class packet
// outcomes, never engine errors.
type DropReason string

const (
	DropTTLExpired DropReason = "ttl_expired"
	DropNoRoute    DropReason = "no_route"
	DropCongestion DropReason = "congestion"
)

// PacketHeader is the protocol metadata carried by a packet. Every field is
// fixed at creation except TTL, which is decremented once per hop.
type PacketHeader struct {
	Version    string
	Protocol   string
	SourceIP   string
	DestIP     string
	SourcePort int
	DestPort   int
	SeqNumber  int
	TTL        int
	Flags      string
	Checksum   string
	Timestamp  time.Time
}

// Packet is one simulated packet. Identity and endpoints are immutable;
// CurrentNode, Path, Status, Hops and Header.TTL mutate as it travels.
// Once Status leaves StatusInTransit it never changes again.
type Packet struct {
	Id          PacketId
	Source      NodeId
	Destination NodeId
	Size        int // bytes
	Color       string

	CurrentNode NodeId
	Path        []NodeId // visited node ids, Path[0] == Source
	Status      Status
	Reason      DropReason // set iff Status == StatusDropped
	Header      PacketHeader
	Hops        int
	StartTime   time.Time
}

// NewPacket builds an in-transit packet at its source with a freshly rolled
// header. Endpoint validation is the caller's concern.
func NewPacket(id PacketId, source, destination NodeId, size int, rng UniformSource) *Packet {
	now := time.Now()
	return &Packet{
		Id:          id,
		Source:      source,
		Destination: destination,
		Size:        size,
		Color:       PacketColors[rng.RandInt(0, len(PacketColors)-1)],
		CurrentNode: source,
		Path:        []NodeId{source},
		Status:      StatusInTransit,
		Header: PacketHeader{
			Version:    "IPv4",
			Protocol:   "TCP",
			SourceIP:   fmt.Sprintf("192.168.1.%d", source),
			DestIP:     fmt.Sprintf("192.168.1.%d", destination),
			SourcePort: rng.RandInt(10000, 60000),
			DestPort:   DefaultDestPort,
			SeqNumber:  rng.RandInt(1, 1000000),
			TTL:        DefaultTTL,
			Flags:      "ACK",
			Checksum:   fmt.Sprintf("0x%04X", rng.RandInt(0, 0xFFFF)),
			Timestamp:  now,
		},
		StartTime: now,
	}
}

func (p *Packet) TTL() int {
	return p.Header.TTL
}

func (p *Packet) Terminal() bool {
	return p.Status != StatusInTransit
}
