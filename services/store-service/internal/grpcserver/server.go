//go:build protogen

package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"github.com/agendafacil/agendafacil/libs/db"
	directoryv1 "github.com/agendafacil/agendafacil/protos/gen/directory/v1"
	"github.com/agendafacil/agendafacil/services/store-service/internal/storage"
)

type server struct {
	directoryv1.UnimplementedDirectoryServiceServer
	pool *db.Pool
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, pool *db.Pool, repo *storage.Repository) {
	directoryv1.RegisterDirectoryServiceServer(grpcServer, &server{pool: pool, repo: repo})
}

func (s *server) GetStoreHours(ctx context.Context, req *directoryv1.StoreHoursRequest) (*directoryv1.StoreHoursResponse, error) {
	if req.GetStoreId() == "" || req.GetDayOfWeek() < 0 || req.GetDayOfWeek() > 6 {
		return &directoryv1.StoreHoursResponse{}, nil
	}

	h, err := s.repo.HoursForWeekday(ctx, req.GetStoreId(), int(req.GetDayOfWeek()))
	if err != nil {
		return nil, err
	}
	resp := &directoryv1.StoreHoursResponse{
		Found:           h.Found,
		IsActive:        h.IsActive,
		SlotStepMinutes: int32(h.SlotStepMinutes),
	}
	if h.StartTime != nil {
		resp.StartTime = *h.StartTime
	}
	if h.EndTime != nil {
		resp.EndTime = *h.EndTime
	}
	return resp, nil
}

func (s *server) GetServicesByIds(ctx context.Context, req *directoryv1.ServicesByIdsRequest) (*directoryv1.ServicesByIdsResponse, error) {
	ids := req.GetServiceIds()
	if len(ids) == 0 {
		return &directoryv1.ServicesByIdsResponse{}, nil
	}

	services, err := s.repo.ServicesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := &directoryv1.ServicesByIdsResponse{}
	for _, svc := range services {
		if !svc.IsActive {
			continue
		}
		resp.Services = append(resp.Services, &directoryv1.Service{
			Id:       svc.ID,
			Duration: svc.Duration,
			Value:    svc.Value,
		})
	}
	return resp, nil
}
