package service

import (
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/general/metrics"
	"geo-dispatch/internal/ports"
)

// DefaultAvgSpeedKMH converts path cost into minutes when no speed is configured.
const DefaultAvgSpeedKMH = 40.0

// dispatchService assigns drivers to orders over the road graph.
type dispatchService struct {
	logger      *logger.Logger
	uow         ports.UnitOfWork
	orderRepo   ports.OrderRepository
	driverRepo  ports.DriverRepository
	graph       ports.CityGraph
	finder      ports.PathFinder
	notifier    ports.DispatchNotifier
	metrics     ports.DispatchMetrics
	avgSpeedKMH float64
}

// NewDispatchService creates a new instance of the DispatchService with the provided dependencies.
// notifier may be nil; a nil m records nothing; avgSpeedKMH <= 0 falls back to DefaultAvgSpeedKMH.
func NewDispatchService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	orderRepo ports.OrderRepository,
	driverRepo ports.DriverRepository,
	graph ports.CityGraph,
	finder ports.PathFinder,
	notifier ports.DispatchNotifier,
	m ports.DispatchMetrics,
	avgSpeedKMH float64,
) ports.DispatchService {
	if m == nil {
		m = metrics.Nop{}
	}
	if avgSpeedKMH <= 0 {
		avgSpeedKMH = DefaultAvgSpeedKMH
	}
	return &dispatchService{
		logger:      logger,
		uow:         uow,
		orderRepo:   orderRepo,
		driverRepo:  driverRepo,
		graph:       graph,
		finder:      finder,
		notifier:    notifier,
		metrics:     m,
		avgSpeedKMH: avgSpeedKMH,
	}
}
