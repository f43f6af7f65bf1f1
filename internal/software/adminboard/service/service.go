package service

import (
	"geo-dispatch/internal/ports"
)

// Service encapsulates the admin dashboard service logic and dependencies.
type adminService struct {
	uow        ports.UnitOfWork
	driverRepo ports.DriverRepository
	graph      ports.CityGraph
}

// NewAdminService creates a new instance of the AdminService with the provided dependencies.
func NewAdminService(
	uow ports.UnitOfWork,
	driverRepo ports.DriverRepository,
	graph ports.CityGraph,
) ports.AdminService {
	return &adminService{
		uow:        uow,
		driverRepo: driverRepo,
		graph:      graph,
	}
}
