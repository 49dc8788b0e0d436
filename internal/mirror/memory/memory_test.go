package memory

import (
	"context"
	"testing"
)

func TestUploadAndDownload(t *testing.T) {
	s := New()
	ctx := context.Background()

	info, err := s.Upload(ctx, "finance_data_a.csv", "id,type\n1,expense", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if info.ID == "" || info.Name != "finance_data_a.csv" {
		t.Errorf("info = %+v", info)
	}

	content, err := s.Download(ctx, info.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if content != "id,type\n1,expense" {
		t.Errorf("content = %q", content)
	}
}

func TestUploadUpdatesInPlace(t *testing.T) {
	s := New()
	ctx := context.Background()

	info, err := s.Upload(ctx, "a.csv", "v1", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	updated, err := s.Upload(ctx, "a.csv", "v2", info.ID)
	if err != nil {
		t.Fatalf("Upload update: %v", err)
	}
	if updated.ID != info.ID {
		t.Errorf("update changed id: %q -> %q", info.ID, updated.ID)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
	if content, _ := s.Download(ctx, info.ID); content != "v2" {
		t.Errorf("content = %q, want v2", content)
	}
}

func TestUploadUnknownID(t *testing.T) {
	s := New()
	if _, err := s.Upload(context.Background(), "a.csv", "v1", "mem:404"); err == nil {
		t.Error("expected error for unknown existing id")
	}
}

func TestFindByName(t *testing.T) {
	s := New()
	ctx := context.Background()

	if info, err := s.FindByName(ctx, "missing.csv"); err != nil || info != nil {
		t.Errorf("FindByName missing = %+v, %v, want nil, nil", info, err)
	}

	uploaded, err := s.Upload(ctx, "a.csv", "v1", "")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	found, err := s.FindByName(ctx, "a.csv")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if found == nil || found.ID != uploaded.ID {
		t.Errorf("found = %+v, want id %q", found, uploaded.ID)
	}
}
