// Package seed loads a road network plus initial drivers and orders from YAML.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"geo-dispatch/internal/domain/driver"
	"geo-dispatch/internal/domain/geo"
	"geo-dispatch/internal/domain/order"
	"geo-dispatch/internal/ports"
)

type Node struct {
	ID  string  `yaml:"id"`
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Road is a directed road; Bidirectional also adds the reverse road with the same weight.
type Road struct {
	From          string  `yaml:"from"`
	To            string  `yaml:"to"`
	Weight        float64 `yaml:"weight"`
	Bidirectional bool    `yaml:"bidirectional"`
}

// Driver defaults to AVAILABLE when Status is empty.
type Driver struct {
	ID     string  `yaml:"id"`
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	Status string  `yaml:"status"`
}

type Order struct {
	ID    string  `yaml:"id"`
	Value float64 `yaml:"value"`
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
}

// File is the seed document.
type File struct {
	Nodes   []Node   `yaml:"nodes"`
	Roads   []Road   `yaml:"roads"`
	Drivers []Driver `yaml:"drivers"`
	Orders  []Order  `yaml:"orders"`
}

// Summary counts what Apply stored. Skipped records already existed.
type Summary struct {
	Nodes   int
	Roads   int
	Drivers int
	Orders  int
	Skipped int
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Demo is the five-location network with one driver near A and one order near E.
func Demo() *File {
	return &File{
		Nodes: []Node{
			{ID: "A", Lat: 10, Lon: 74},
			{ID: "B", Lat: 11, Lon: 34},
			{ID: "C", Lat: 8, Lon: 10},
			{ID: "D", Lat: 48, Lon: 30},
			{ID: "E", Lat: 81, Lon: 63},
		},
		Roads: []Road{
			{From: "A", To: "B", Weight: 5},
			{From: "A", To: "C", Weight: 2},
			{From: "B", To: "D", Weight: 4},
			{From: "C", To: "D", Weight: 6},
			{From: "C", To: "E", Weight: 3},
		},
		Drivers: []Driver{{ID: "demo-driver-1", Lat: 10.1, Lon: 74.1}},
		Orders:  []Order{{ID: "demo-order-1", Value: 12.5, Lat: 81.1, Lon: 63.1}},
	}
}

// ApplyGraph adds every node, then every road, to g.
func (f *File) ApplyGraph(g ports.CityGraph) (nodes, roads int, err error) {
	for _, n := range f.Nodes {
		node, err := geo.NewLocationNode(n.ID, n.Lat, n.Lon)
		if err != nil {
			return nodes, roads, fmt.Errorf("node %q: %w", n.ID, err)
		}
		if err := g.AddNode(node); err != nil {
			return nodes, roads, fmt.Errorf("node %q: %w", n.ID, err)
		}
		nodes++
	}
	for _, r := range f.Roads {
		if err := g.AddRoad(r.From, r.To, r.Weight); err != nil {
			return nodes, roads, fmt.Errorf("road %s->%s: %w", r.From, r.To, err)
		}
		roads++
		if r.Bidirectional {
			if err := g.AddRoad(r.To, r.From, r.Weight); err != nil {
				return nodes, roads, fmt.Errorf("road %s->%s: %w", r.To, r.From, err)
			}
			roads++
		}
	}
	return nodes, roads, nil
}

// ApplyStore creates the seeded drivers and orders. Records that already exist are skipped,
// so seeding a persistent store twice is harmless.
func (f *File) ApplyStore(ctx context.Context, drivers ports.DriverRepository, orders ports.OrderRepository) (Summary, error) {
	var sum Summary
	for _, sd := range f.Drivers {
		d, err := sd.build()
		if err != nil {
			return sum, err
		}
		switch err := drivers.Create(ctx, d); {
		case errors.Is(err, ports.ErrConflict):
			sum.Skipped++
		case err != nil:
			return sum, fmt.Errorf("driver %q: %w", sd.ID, err)
		default:
			sum.Drivers++
		}
	}
	for _, so := range f.Orders {
		o, err := order.NewOrder(so.ID, so.Value, so.Lat, so.Lon)
		if err != nil {
			return sum, fmt.Errorf("order %q: %w", so.ID, err)
		}
		switch err := orders.Create(ctx, o); {
		case errors.Is(err, ports.ErrConflict):
			sum.Skipped++
		case err != nil:
			return sum, fmt.Errorf("order %q: %w", so.ID, err)
		default:
			sum.Orders++
		}
	}
	return sum, nil
}

// Apply loads the graph and the store.
func (f *File) Apply(ctx context.Context, g ports.CityGraph, drivers ports.DriverRepository, orders ports.OrderRepository) (Summary, error) {
	nodes, roads, err := f.ApplyGraph(g)
	if err != nil {
		return Summary{Nodes: nodes, Roads: roads}, err
	}
	sum, err := f.ApplyStore(ctx, drivers, orders)
	sum.Nodes, sum.Roads = nodes, roads
	return sum, err
}

func (sd Driver) build() (*driver.Driver, error) {
	d, err := driver.NewDriver(sd.ID, sd.Lat, sd.Lon)
	if err != nil {
		return nil, fmt.Errorf("driver %q: %w", sd.ID, err)
	}
	if sd.Status == "" {
		return d, nil
	}
	status, err := driver.ParseDriverStatus(sd.Status)
	if err != nil {
		return nil, fmt.Errorf("driver %q: %w", sd.ID, err)
	}
	switch status {
	case driver.DriverStatusBusy:
		err = d.MarkBusy()
	case driver.DriverStatusOffline:
		err = d.GoOffline()
	}
	if err != nil {
		return nil, fmt.Errorf("driver %q: %w", sd.ID, err)
	}
	return d, nil
}
