package routing

import (
	"context"
	"errors"
	"log/slog"

	pb "github.com/osrg/gobgp/v3/api"
	"github.com/osrg/gobgp/v3/pkg/server"
	"github.com/poyrazK/hora/internal/core/ports"
	"google.golang.org/protobuf/types/known/anypb"
)

// BGPBackend defines the subset of GoBGP server methods we use,
// allowing us to mock it for testing.
type BGPBackend interface {
	Serve()
	Stop()
	AddPeer(ctx context.Context, r *pb.AddPeerRequest) error
	AddPath(ctx context.Context, r *pb.AddPathRequest) (*pb.AddPathResponse, error)
	DeletePath(ctx context.Context, r *pb.DeletePathRequest) error
}

// GoBGPAdapter implements the RoutingEngine port using GoBGP. It announces
// the auth service VIP as a /32 host route and withdraws it when the node
// should stop taking logins.
type GoBGPAdapter struct {
	bgpServer BGPBackend
	logger    *slog.Logger
}

// NewGoBGPAdapter initializes a new GoBGPAdapter with a real GoBGP server.
func NewGoBGPAdapter(logger *slog.Logger) *GoBGPAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoBGPAdapter{
		bgpServer: server.NewBgpServer(),
		logger:    logger,
	}
}

// Start begins the BGP process and establishes peering.
func (a *GoBGPAdapter) Start(ctx context.Context, localASN, peerASN uint32, peerIP string) error {
	a.logger.Info("starting BGP engine", "local_asn", localASN, "peer_asn", peerASN, "peer_ip", peerIP)

	go a.bgpServer.Serve()

	peer := &pb.Peer{
		Conf: &pb.PeerConf{
			NeighborAddress: peerIP,
			PeerAsn:         peerASN,
		},
	}
	return a.bgpServer.AddPeer(ctx, &pb.AddPeerRequest{Peer: peer})
}

// Announce advertises the VIP via BGP.
func (a *GoBGPAdapter) Announce(ctx context.Context, vip string) error {
	if a.bgpServer == nil {
		return errors.New("BGP server not started")
	}

	a.logger.Info("announcing service VIP", "vip", vip)

	path, err := hostRoutePath(vip)
	if err != nil {
		return err
	}
	if _, err := a.bgpServer.AddPath(ctx, &pb.AddPathRequest{Path: path}); err != nil {
		return err
	}
	return nil
}

// Withdraw removes the VIP advertisement from BGP.
func (a *GoBGPAdapter) Withdraw(ctx context.Context, vip string) error {
	if a.bgpServer == nil {
		return errors.New("BGP server not started")
	}

	a.logger.Info("withdrawing service VIP", "vip", vip)

	path, err := hostRoutePath(vip)
	if err != nil {
		return err
	}
	return a.bgpServer.DeletePath(ctx, &pb.DeletePathRequest{Path: path})
}

// Stop gracefully shuts down the BGP engine.
func (a *GoBGPAdapter) Stop() error {
	if a.bgpServer != nil {
		a.bgpServer.Stop()
	}
	return nil
}

// hostRoutePath builds the /32 unicast path for the VIP.
func hostRoutePath(vip string) (*pb.Path, error) {
	nlri, err := anypb.New(&pb.IPAddressPrefix{
		Prefix:    vip,
		PrefixLen: 32,
	})
	if err != nil {
		return nil, err
	}
	origin, err := anypb.New(&pb.OriginAttribute{
		Origin: 0, // IGP
	})
	if err != nil {
		return nil, err
	}
	return &pb.Path{
		Nlri:   nlri,
		Pattrs: []*anypb.Any{origin},
		Family: &pb.Family{Afi: pb.Family_AFI_IP, Safi: pb.Family_SAFI_UNICAST},
	}, nil
}

var _ ports.RoutingEngine = (*GoBGPAdapter)(nil)
