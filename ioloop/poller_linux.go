//go:build linux

package ioloop

import (
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller is the Linux poller backend, adapted from an epoll wrapper
// but simplified for single-threaded use: no version counters or RWMutex,
// since only the loop coroutine ever touches it.
type epollPoller struct {
	epfd   int
	events [256]unix.EpollEvent
	fds    map[int]Events
}

func newPlatformPoller() poller {
	return &epollPoller{fds: make(map[int]Events)}
}

func (p *epollPoller) init() error {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = fd
	return nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

func eventsToEpoll(ev Events) uint32 {
	var out uint32
	if ev&EventRead != 0 {
		out |= unix.EPOLLIN
	}
	if ev&EventWrite != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func epollToEvents(mask uint32) Events {
	var ev Events
	if mask&unix.EPOLLIN != 0 {
		ev |= EventRead
	}
	if mask&unix.EPOLLOUT != 0 {
		ev |= EventWrite
	}
	if mask&unix.EPOLLERR != 0 {
		ev |= EventError
	}
	if mask&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		ev |= EventHangup
	}
	return ev
}

func (p *epollPoller) register(fd int, ev Events) error {
	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}
	e := unix.EpollEvent{Events: eventsToEpoll(ev), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &e); err != nil {
		return err
	}
	p.fds[fd] = ev
	return nil
}

func (p *epollPoller) modify(fd int, ev Events) error {
	if _, ok := p.fds[fd]; !ok {
		return ErrFDNotRegistered
	}
	e := unix.EpollEvent{Events: eventsToEpoll(ev), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &e); err != nil {
		return err
	}
	p.fds[fd] = ev
	return nil
}

func (p *epollPoller) unregister(fd int) error {
	if _, ok := p.fds[fd]; !ok {
		return ErrFDNotRegistered
	}
	delete(p.fds, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) poll(timeout time.Duration, cb func(fd int, ev Events)) error {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.epfd, p.events[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		ev := &p.events[i]
		cb(int(ev.Fd), epollToEvents(ev.Events))
	}
	return nil
}
