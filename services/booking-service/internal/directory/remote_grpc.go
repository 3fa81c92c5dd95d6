//go:build protogen

package directory

import (
	"context"
	"time"

	directoryv1 "github.com/agendafacil/agendafacil/protos/gen/directory/v1"

	"github.com/agendafacil/agendafacil/libs/grpcx"
)

type grpcDirectory struct {
	client directoryv1.DirectoryServiceClient
}

// NewRemote dials store-service's directory RPC. An empty address yields
// nil so the caller falls back to the SQL directory.
func NewRemote(addr string) (Directory, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcDirectory{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

func (d *grpcDirectory) StoreHours(ctx context.Context, storeID string, weekday time.Weekday) (DayHours, error) {
	resp, err := d.client.GetStoreHours(ctx, &directoryv1.StoreHoursRequest{
		StoreId:   storeID,
		DayOfWeek: int32(weekday),
	})
	if err != nil {
		return DayHours{}, err
	}
	if !resp.GetFound() {
		return DayHours{}, ErrNotFound
	}
	h := DayHours{
		IsActive:        resp.GetIsActive(),
		SlotStepMinutes: int(resp.GetSlotStepMinutes()),
	}
	if v := resp.GetStartTime(); v != "" {
		h.StartTime = &v
	}
	if v := resp.GetEndTime(); v != "" {
		h.EndTime = &v
	}
	return h, nil
}

func (d *grpcDirectory) ServicesByIDs(ctx context.Context, ids []string) ([]Service, error) {
	resp, err := d.client.GetServicesByIds(ctx, &directoryv1.ServicesByIdsRequest{ServiceIds: ids})
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(resp.GetServices()))
	for _, s := range resp.GetServices() {
		out = append(out, Service{
			ID:       s.GetId(),
			Duration: s.GetDuration(),
			Value:    s.GetValue(),
		})
	}
	return out, nil
}
