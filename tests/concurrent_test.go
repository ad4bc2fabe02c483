// Package tests provides integration tests for the Oba LDAP server.
package tests

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/oba-ldap/oba/internal/ldap"
)

// TestIntegrationConcurrent tests concurrent operations.
func TestIntegrationConcurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// Start test server
	srv, err := NewTestServer(nil)
	if err != nil {
		t.Fatalf("failed to create test server: %v", err)
	}

	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}
	defer srv.Stop()

	// Wait for server to start
	time.Sleep(100 * time.Millisecond)

	t.Run("concurrent_binds", func(t *testing.T) {
		testConcurrentBinds(t, srv)
	})

	t.Run("concurrent_connections", func(t *testing.T) {
		testConcurrentConnections(t, srv)
	})
}

// testConcurrentBinds tests multiple concurrent bind operations.
func testConcurrentBinds(t *testing.T, srv *TestServer) {
	const numGoroutines = 10
	const numBindsPerGoroutine = 5

	var wg sync.WaitGroup
	errors := make(chan error, numGoroutines*numBindsPerGoroutine)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < numBindsPerGoroutine; j++ {
				conn, err := net.Dial("tcp", srv.Address())
				if err != nil {
					errors <- err
					continue
				}

				// Perform bind
				bindReq := createBindRequest(1, 3, srv.Config().RootDN, srv.Config().RootPassword)
				if err := sendMessage(conn, bindReq); err != nil {
					conn.Close()
					errors <- err
					continue
				}

				resp, err := readMessage(conn)
				if err != nil {
					conn.Close()
					errors <- err
					continue
				}

				resultCode := parseBindResponse(resp)
				if resultCode != ldap.ResultSuccess {
					errors <- &ldapError{code: resultCode, message: "bind failed"}
				}

				conn.Close()
			}
		}()
	}

	wg.Wait()
	close(errors)

	// Check for errors
	var errCount int
	for err := range errors {
		t.Errorf("concurrent bind error: %v", err)
		errCount++
	}

	if errCount > 0 {
		t.Errorf("total errors: %d", errCount)
	}
}

// testConcurrentConnections tests multiple concurrent connections.
func testConcurrentConnections(t *testing.T, srv *TestServer) {
	const numConnections = 20

	var wg sync.WaitGroup
	connections := make([]net.Conn, numConnections)
	errors := make(chan error, numConnections)

	// Open all connections
	for i := 0; i < numConnections; i++ {
		conn, err := net.Dial("tcp", srv.Address())
		if err != nil {
			errors <- err
			continue
		}
		connections[i] = conn
	}

	// Perform operations on all connections concurrently
	for i, conn := range connections {
		if conn == nil {
			continue
		}
		wg.Add(1)
		go func(c net.Conn, idx int) {
			defer wg.Done()
			defer c.Close()

			// Perform anonymous bind
			bindReq := createBindRequest(1, 3, "", "")
			if err := sendMessage(c, bindReq); err != nil {
				errors <- err
				return
			}

			resp, err := readMessage(c)
			if err != nil {
				errors <- err
				return
			}

			resultCode := parseBindResponse(resp)
			if resultCode != ldap.ResultSuccess {
				errors <- &ldapError{code: resultCode, message: "bind failed"}
			}
		}(conn, i)
	}

	wg.Wait()
	close(errors)

	// Check for errors
	var errCount int
	for err := range errors {
		t.Errorf("concurrent connection error: %v", err)
		errCount++
	}

	if errCount > 0 {
		t.Errorf("total errors: %d", errCount)
	}
}
