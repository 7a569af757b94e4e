/*
Copyright © 2026 the gridcast authors.
This file is part of gridcast.

gridcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridcast.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package display provides a virtual X display for software that
// requires one, such as off-screen renderers. Nothing is started
// until Start is called, and the display is released by Close.
package display

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
)

// Config specifies the virtual display to start. Zero fields take
// their default values.
type Config struct {
	// Display is the X display number. The default is 99.
	Display int

	// Width, Height and Depth give the screen geometry. The
	// defaults are 1024, 768 and 24.
	Width, Height, Depth int

	// Executable is the X server command. The default is "Xvfb".
	Executable string

	// SocketDir is the directory where the server creates its socket.
	// The default is "/tmp/.X11-unix".
	SocketDir string

	// StartTimeout is the maximum time to wait for the server to
	// start. The default is 10 seconds.
	StartTimeout time.Duration

	// Log receives progress information. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

func (c *Config) setDefaults() {
	if c.Display == 0 {
		c.Display = 99
	}
	if c.Width == 0 {
		c.Width = 1024
	}
	if c.Height == 0 {
		c.Height = 768
	}
	if c.Depth == 0 {
		c.Depth = 24
	}
	if c.Executable == "" {
		c.Executable = "Xvfb"
	}
	if c.SocketDir == "" {
		c.SocketDir = "/tmp/.X11-unix"
	}
	if c.StartTimeout == 0 {
		c.StartTimeout = 10 * time.Second
	}
	if c.Log == nil {
		c.Log = logrus.StandardLogger()
	}
}

// Server is a running virtual display.
type Server struct {
	// Name is the display name, for example ":99".
	Name string

	cmd     *exec.Cmd
	exited  chan struct{}
	prev    string
	hadPrev bool
	log     logrus.FieldLogger

	closeOnce sync.Once
}

// Start launches a virtual X server and waits until it accepts
// connections, then points the DISPLAY environment variable at it.
// If the server cannot be started, any process that was launched
// is stopped and the environment is not changed. Callers should
// defer a call to Close.
func Start(ctx context.Context, c Config) (*Server, error) {
	c.setDefaults()
	name := fmt.Sprintf(":%d", c.Display)
	socket := filepath.Join(c.SocketDir, fmt.Sprintf("X%d", c.Display))
	if _, err := os.Stat(socket); err == nil {
		return nil, fmt.Errorf("display: display %s is already in use", name)
	}

	cmd := exec.Command(c.Executable, name, "-screen", "0", fmt.Sprintf("%dx%dx%d", c.Width, c.Height, c.Depth))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("display: starting %s: %v", c.Executable, err)
	}
	s := &Server{
		Name:   name,
		cmd:    cmd,
		exited: make(chan struct{}),
		log:    c.Log,
	}
	go func() {
		cmd.Wait()
		close(s.exited)
	}()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxElapsedTime = c.StartTimeout
	err := backoff.RetryNotify(
		func() error {
			select {
			case <-s.exited:
				return backoff.Permanent(fmt.Errorf("display: %s exited before display %s was ready", c.Executable, name))
			default:
			}
			if _, err := os.Stat(socket); err != nil {
				return fmt.Errorf("display: waiting for display %s: %v", name, err)
			}
			return nil
		},
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			c.Log.WithField("display", name).Debugf("%v; retrying in %v", err, d)
		},
	)
	if err != nil {
		s.kill()
		return nil, err
	}

	s.prev, s.hadPrev = os.LookupEnv("DISPLAY")
	os.Setenv("DISPLAY", name)
	c.Log.WithField("display", name).Info("display: started virtual display")
	return s, nil
}

// Close stops the server and restores the previous value of the
// DISPLAY environment variable. Calls after the first have no effect.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.kill()
		if s.hadPrev {
			os.Setenv("DISPLAY", s.prev)
		} else {
			os.Unsetenv("DISPLAY")
		}
		s.log.WithField("display", s.Name).Info("display: stopped virtual display")
	})
	return nil
}

func (s *Server) kill() {
	select {
	case <-s.exited:
		return
	default:
	}
	s.cmd.Process.Kill()
	<-s.exited
}
