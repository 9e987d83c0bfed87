package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"ontolarium/internal/domain"
)

const (
	// DefaultScanPorts covers the common service ports.
	DefaultScanPorts = "22,25,53,80,443,445,3389,5432,5900,8080,8443"

	// DefaultScanTimeout bounds one whole scan.
	DefaultScanTimeout = 5 * time.Minute

	networkNodeID = "network"
)

// NetscanGenerator maps a live network into an ontology. The prompt
// names scan targets (IPs, hostnames, CIDR ranges, separated by spaces
// or commas); responding hosts become instances, the services they
// expose become classes shared between the hosts that run them.
type NetscanGenerator struct {
	ports            string
	timeout          time.Duration
	serviceDetection bool
}

// NetscanOption configures a NetscanGenerator
type NetscanOption func(*NetscanGenerator)

// WithScanPorts sets the port list passed to nmap
func WithScanPorts(ports string) NetscanOption {
	return func(g *NetscanGenerator) {
		g.ports = ports
	}
}

// WithScanTimeout bounds the scan duration
func WithScanTimeout(timeout time.Duration) NetscanOption {
	return func(g *NetscanGenerator) {
		g.timeout = timeout
	}
}

// WithServiceDetection toggles nmap service/version probing
func WithServiceDetection(enabled bool) NetscanOption {
	return func(g *NetscanGenerator) {
		g.serviceDetection = enabled
	}
}

// NewNetscanGenerator creates a new nmap-based generator
func NewNetscanGenerator(opts ...NetscanOption) *NetscanGenerator {
	g := &NetscanGenerator{
		ports:            DefaultScanPorts,
		timeout:          DefaultScanTimeout,
		serviceDetection: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the backend identifier
func (g *NetscanGenerator) Name() string {
	return "netscan"
}

// Generate scans the targets named by the prompt and builds the graph
func (g *NetscanGenerator) Generate(ctx context.Context, prompt string) (*domain.Graph, error) {
	targets := splitTargets(prompt)
	if len(targets) == 0 {
		return nil, errors.New("no scan targets in prompt")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(targets...),
		nmap.WithPorts(g.ports),
	}
	if g.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	log.Printf("Netscan: scanning %v (ports %s)", targets, g.ports)
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("Netscan: warnings: %v", *warnings)
	}

	graph, err := g.buildGraph(result, strings.Join(targets, " "))
	if err != nil {
		return nil, err
	}
	log.Printf("Netscan: scan complete, %d nodes, %d edges", len(graph.Nodes), len(graph.Edges))
	return graph, nil
}

// buildGraph converts a scan result into the ontology form
func (g *NetscanGenerator) buildGraph(result *nmap.Run, scope string) (*domain.Graph, error) {
	if result == nil {
		return nil, errors.New("nil scan result")
	}

	graph := domain.NewGraph()
	network := domain.NewNode(networkNodeID, scope, domain.CategoryConcept)
	network.Description = "Scanned network scope"
	if err := graph.AddNode(network); err != nil {
		return nil, err
	}

	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}
		ip := primaryAddress(host)
		hostID := "host-" + sanitizeAddr(ip)
		if graph.Node(hostID) != nil {
			continue
		}

		node := domain.NewNode(hostID, hostLabel(host, ip), domain.CategoryInstance)
		if err := graph.AddNode(node); err != nil {
			return nil, err
		}
		if err := addEdgeOnce(graph, hostID, networkNodeID, "member_of"); err != nil {
			return nil, err
		}

		open := 0
		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			open++

			service := port.Service.Name
			if service == "" {
				service = fmt.Sprintf("port-%d", port.ID)
			}
			svcID := "service-" + sanitizeAddr(service)
			if graph.Node(svcID) == nil {
				svc := domain.NewNode(svcID, service, domain.CategoryClass)
				svc.Description = "Network service"
				if err := graph.AddNode(svc); err != nil {
					return nil, err
				}
			}
			if err := addEdgeOnce(graph, hostID, svcID, "runs"); err != nil {
				return nil, err
			}
		}
		node.Description = fmt.Sprintf("Host %s, %d open ports", ip, open)
	}

	return graph, nil
}

// addEdgeOnce adds the edge unless the same relation already exists.
// Two open ports for one service name would otherwise collide.
func addEdgeOnce(g *domain.Graph, source, target, label string) error {
	e := domain.NewEdge(source, target, label)
	if g.Edge(e.ID) != nil {
		return nil
	}
	return g.AddEdge(e)
}

// primaryAddress prefers the IPv4 address, falling back to the first
func primaryAddress(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	return host.Addresses[0].Addr
}

// hostLabel prefers the short hostname over the raw address
func hostLabel(host nmap.Host, ip string) string {
	for _, hn := range host.Hostnames {
		if hn.Name != "" {
			return strings.Split(hn.Name, ".")[0]
		}
	}
	return ip
}

// sanitizeAddr turns an address or service name into an id fragment
func sanitizeAddr(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ':', '/', ' ':
			return '-'
		}
		return r
	}, s)
}

// splitTargets splits the prompt into scan targets
func splitTargets(prompt string) []string {
	return strings.FieldsFunc(prompt, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\n' || r == '\t'
	})
}
