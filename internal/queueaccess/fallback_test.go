package queueaccess_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"murmur/internal/activity"
	"murmur/internal/api"
	"murmur/internal/queueaccess"
	"murmur/internal/scanner"
	"murmur/internal/testsupport"
)

func localOpener(t *testing.T, closed *bool) queueaccess.LocalOpener {
	cfg := testsupport.NewConfig(t)
	return func() (*api.Service, func() error, error) {
		store := testsupport.MustOpenStore(t, cfg)
		recorder := activity.NewRecorder(store, nil)
		svc := api.NewService(store, scanner.New(cfg.Scanner, store, recorder, nil), recorder, cfg.Transcription.Model)
		return svc, func() error {
			*closed = true
			return store.Close()
		}, nil
	}
}

func TestOpenWithFallbackUsesDaemonWhenReachable(t *testing.T) {
	var closed bool
	svc, closeLocal, err := localOpener(t, &closed)()
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	defer closeLocal()
	srv := httptest.NewServer(api.NewRouter(svc, nil))
	defer srv.Close()

	session, err := queueaccess.OpenWithFallback(context.Background(),
		func() (*api.Client, error) { return api.NewClient(srv.URL) },
		func() (*api.Service, func() error, error) {
			t.Fatal("local store should not be opened when the daemon answers")
			return nil, nil, nil
		},
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	defer session.Close()
	if !session.Remote {
		t.Fatal("expected remote session")
	}
	if _, err := session.Access.AddFolder(context.Background(), "/media"); err != nil {
		t.Fatalf("AddFolder via daemon: %v", err)
	}
}

func TestOpenWithFallbackUsesStoreWhenDaemonDown(t *testing.T) {
	var closed bool
	session, err := queueaccess.OpenWithFallback(context.Background(),
		func() (*api.Client, error) { return api.NewClient("127.0.0.1:1") },
		localOpener(t, &closed),
	)
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	if session.Remote {
		t.Fatal("expected local session")
	}
	folders, err := session.Access.ListFolders(context.Background())
	if err != nil || len(folders) != 0 {
		t.Fatalf("ListFolders = %d, %v", len(folders), err)
	}
	status, err := session.Access.Status(context.Background())
	if err != nil || status.Worker.Running {
		t.Fatalf("Status = %+v, %v", status, err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !closed {
		t.Fatal("expected local store to be closed")
	}
}

func TestOpenWithFallbackRequiresOpener(t *testing.T) {
	_, err := queueaccess.OpenWithFallback(context.Background(),
		func() (*api.Client, error) { return nil, errors.New("no daemon") },
		nil,
	)
	if err == nil {
		t.Fatal("expected error without a store opener")
	}
}
