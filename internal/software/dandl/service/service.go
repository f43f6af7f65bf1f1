package service

import (
	"geo-dispatch/internal/general/logger"
	"geo-dispatch/internal/ports"
)

// driverOpsService holds all dependencies required by the driver operations.
type driverOpsService struct {
	logger  *logger.Logger
	uow     ports.UnitOfWork
	drivers ports.DriverRepository
	orders  ports.OrderRepository
}

// NewDriverOpsService constructs the service with required dependencies.
func NewDriverOpsService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	drivers ports.DriverRepository,
	orders ports.OrderRepository,
) ports.DriverOpsService {
	return &driverOpsService{
		logger:  logger,
		uow:     uow,
		drivers: drivers,
		orders:  orders,
	}
}
