// Command flowrun loads one `.flow` network, feeds it a stream of
// whitespace-separated floating-point samples chunked into fixed-size
// frames, and prints every packet the network's external output
// produces until end-of-stream (spec.md §4.5's assembled network,
// driven the way a real front-end deployment would drive it).
/*
 * Grounded on the teacher's own cmd drivers: flags parsed with the
 * standard library's flag package (no CLI framework appears anywhere in
 * the retrieved example corpus as a direct dependency), nlog for
 * logging, and a plain top-to-bottom main rather than a subcommand
 * tree, since this driver has exactly one job.
 */
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rwthflow/flow/cmn/config"
	"github.com/rwthflow/flow/cmn/nlog"
	"github.com/rwthflow/flow/filters"
	"github.com/rwthflow/flow/link"
	"github.com/rwthflow/flow/metrics"
	"github.com/rwthflow/flow/network"
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flowPath    = flag.String("flow", "", "path to the .flow file to assemble and run")
		inputPath   = flag.String("input", "", "path to a file of whitespace-separated float64 samples; defaults to stdin")
		configPath  = flag.String("config", "", "path to a TOML engine config; built-in defaults are used if omitted")
		frameSize   = flag.Int("frame-size", 160, "samples per packet fed to the network's external input")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics at this address (e.g. :9090) for the run's duration")
	)
	nlog.InitFlags(flag.CommandLine)
	flag.Parse()

	if *flowPath == "" {
		fmt.Fprintln(os.Stderr, "flowrun: -flow is required")
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "flowrun:", err)
			return 1
		}
		cfg = loaded
	}

	reg := metrics.New()
	node.UseMetrics(reg)
	filters.UseMetrics(reg)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			nlog.Infof("serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				nlog.Errorf("metrics server: %v", err)
			}
		}()
	}

	filters.Register()

	f, err := os.Open(*flowPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flowrun:", err)
		return 1
	}
	defer f.Close()
	tpl, err := network.ParseFlow(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flowrun:", err)
		return 1
	}

	resolver := network.NewResolver(cfg.Network.SearchPath, cfg.Network.Extension)
	net, err := network.Build(tpl, resolver, filepath.Dir(*flowPath), false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "flowrun:", err)
		return 1
	}
	if net.NInputs() != 1 || net.NOutputs() != 1 {
		fmt.Fprintf(os.Stderr, "flowrun: network %q must declare exactly one external input and output (has %d/%d)\n",
			net.Name(), net.NInputs(), net.NOutputs())
		return 1
	}

	inPort, _ := net.NameToInputPort(0)
	outPort, _ := net.NameToOutputPort(0)

	src := port.NewOutput("flowrun-source", 0, inPort.Datatype)
	sink := port.NewInput("flowrun-sink", 0, outPort.Datatype)
	wire(src, inPort)
	wire(outPort, sink)

	if !net.Configure() {
		fmt.Fprintln(os.Stderr, "flowrun: configure failed:", net.Errs())
		return 1
	}

	in := os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "flowrun:", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	return drive(net, src, sink, outPort, in, *frameSize)
}

// wire attaches a single Fast-mode Link between an output and an input
// port, the same primitive network.Build uses for every internal link
// (spec.md §4.2's "producer and consumer step in lockstep" default).
func wire(out, in *port.Port) {
	l := link.New(out.Datatype, link.Fast)
	if err := out.Attach(l); err != nil {
		nlog.Errorf("flowrun: %v", err)
	}
	if err := in.Attach(l); err != nil {
		nlog.Errorf("flowrun: %v", err)
	}
}

// drive reads samples from r in frameSize chunks, feeding each chunk
// into the network's external input and pulling its external output
// once per chunk, then feeds a final EOS and drains whatever the
// network still has buffered.
func drive(net *network.Network, src *port.Port, sink *port.Port, outPort *port.Port, r *os.File, frameSize int) int {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	ts := 0.0
	eof := false
	for !eof {
		frame := make([]float64, 0, frameSize)
		for len(frame) < frameSize {
			v, ok, err := nextFloat(scanner)
			if err != nil {
				fmt.Fprintln(os.Stderr, "flowrun: reading samples:", err)
				return 1
			}
			if !ok {
				eof = true
				break
			}
			frame = append(frame, v)
		}
		if len(frame) == 0 {
			break
		}
		start := ts
		ts += float64(len(frame))
		if err := src.Put(packet.New(packet.NewFloat64Vector(packet.Timestamp{Start: start, End: ts}, frame...))); err != nil {
			fmt.Fprintln(os.Stderr, "flowrun:", err)
			return 1
		}
		net.Work(outPort)
		printOutput(sink)
	}

	if err := src.Put(packet.New(packet.EOS)); err != nil {
		fmt.Fprintln(os.Stderr, "flowrun:", err)
		return 1
	}
	for net.Work(outPort) {
		printOutput(sink)
	}
	printOutput(sink)
	if err := net.Errs(); err != nil {
		fmt.Fprintln(os.Stderr, "flowrun:", err)
		return 1
	}
	return 0
}

// printOutput drains whatever single packet is currently sitting on
// sink's link, printing real payload packets and silently passing over
// the three control sentinels.
func printOutput(sink *port.Port) {
	r, err := sink.Get()
	if err != nil {
		return
	}
	defer r.Release()
	switch p := r.Get().(type) {
	case *packet.Vector[float64]:
		fmt.Printf("[%g,%g)", p.Start, p.End)
		for _, v := range p.Values {
			fmt.Printf(" %g", v)
		}
		fmt.Println()
	case *packet.StringPacket:
		fmt.Printf("[%g,%g) %s\n", p.Start, p.End, p.Value)
	}
}

func nextFloat(scanner *bufio.Scanner) (float64, bool, error) {
	if !scanner.Scan() {
		return 0, false, scanner.Err()
	}
	var v float64
	if _, err := fmt.Sscanf(scanner.Text(), "%g", &v); err != nil {
		return 0, false, fmt.Errorf("invalid sample %q: %w", scanner.Text(), err)
	}
	return v, true, nil
}
