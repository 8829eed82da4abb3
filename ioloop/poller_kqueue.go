//go:build darwin || freebsd || netbsd || openbsd

package ioloop

import (
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD-family poller backend, adapted from a kqueue
// wrapper, simplified for single-threaded use.
type kqueuePoller struct {
	kq     int
	events [256]unix.Kevent_t
	fds    map[int]Events
}

func newPlatformPoller() poller {
	return &kqueuePoller{fds: make(map[int]Events)}
}

func (p *kqueuePoller) init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	return nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

func kevents(fd int, ev Events, flags uint16) []unix.Kevent_t {
	var out []unix.Kevent_t
	if ev&EventRead != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if ev&EventWrite != 0 {
		out = append(out, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return out
}

func (p *kqueuePoller) register(fd int, ev Events) error {
	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	changes := kevents(fd, ev, unix.EV_ADD|unix.EV_ENABLE)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return err
		}
	}
	p.fds[fd] = ev
	return nil
}

func (p *kqueuePoller) modify(fd int, ev Events) error {
	old, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	if del := kevents(fd, old, unix.EV_DELETE); len(del) > 0 {
		_, _ = unix.Kevent(p.kq, del, nil, nil)
	}
	if add := kevents(fd, ev, unix.EV_ADD|unix.EV_ENABLE); len(add) > 0 {
		if _, err := unix.Kevent(p.kq, add, nil, nil); err != nil {
			return err
		}
	}
	p.fds[fd] = ev
	return nil
}

func (p *kqueuePoller) unregister(fd int) error {
	ev, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	if del := kevents(fd, ev, unix.EV_DELETE); len(del) > 0 {
		_, _ = unix.Kevent(p.kq, del, nil, nil)
	}
	return nil
}

func (p *kqueuePoller) poll(timeout time.Duration, cb func(fd int, ev Events)) error {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.events[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		e := &p.events[i]
		var ev Events
		switch e.Filter {
		case unix.EVFILT_READ:
			ev = EventRead
		case unix.EVFILT_WRITE:
			ev = EventWrite
		}
		if e.Flags&unix.EV_EOF != 0 {
			ev |= EventHangup
		}
		if e.Flags&unix.EV_ERROR != 0 {
			ev |= EventError
		}
		cb(int(e.Ident), ev)
	}
	return nil
}
