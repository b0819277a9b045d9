package ytdlp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

const (
	// Un --dump-json de un video con muchos formatos supera fácilmente 1 MiB
	maxLineSize = 64 << 20
	chunkSize   = 32 << 10

	// Lo que se conserva de una línea que supera maxLineSize
	oversizedPrefix = 4 << 10
)

// Invocation describe una ejecución de yt-dlp
type Invocation struct {
	Program string
	Args    []string
	Dir     string
	// SplitLines entrega stdout línea por línea (modo metadatos). Si es false
	// se entregan los chunks tal como llegan (modo descarga).
	SplitLines bool
}

// ExitStatus es el resultado de un proceso terminado
type ExitStatus struct {
	Code int
	// Normal es false si el proceso terminó por una señal
	Normal bool
	// Err es un error de espera que no es un código de salida
	Err error
}

// Success indica salida normal con código 0
func (s ExitStatus) Success() bool {
	return s.Normal && s.Code == 0 && s.Err == nil
}

// Callbacks recibe la salida del proceso. Se invocan desde goroutines de
// lectura; OnExit siempre llega después de drenar stdout y stderr.
type Callbacks struct {
	OnStdout func(data []byte)
	OnStderr func(data []byte)
	OnExit   func(ExitStatus)
}

// Process es un proceso en ejecución
type Process interface {
	// Kill es idempotente y seguro después de la salida
	Kill()
}

// Starter abstrae el lanzamiento de procesos para poder probar sin yt-dlp
type Starter interface {
	Start(inv Invocation, cb Callbacks) (Process, error)
}

// ExecStarter lanza procesos reales con os/exec
type ExecStarter struct{}

var _ Starter = ExecStarter{}

// Start lanza el proceso. Un error aquí significa que nunca arrancó y que
// ningún callback será invocado.
func (ExecStarter) Start(inv Invocation, cb Callbacks) (Process, error) {
	cmd := exec.Command(inv.Program, inv.Args...) //nolint:gosec
	cmd.Dir = inv.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", inv.Program, err)
	}

	proc := &execProcess{cmd: cmd}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if inv.SplitLines {
			readLines(stdout, maxLineSize, cb.OnStdout)
		} else {
			readChunks(stdout, cb.OnStdout)
		}
	}()
	go func() {
		defer wg.Done()
		readChunks(stderr, cb.OnStderr)
	}()

	go func() {
		// Wait cierra los pipes: primero hay que terminar de leer
		wg.Wait()
		status := exitStatusFrom(cmd.Wait())
		if cb.OnExit != nil {
			cb.OnExit(status)
		}
	}()

	return proc, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	once sync.Once
}

func (p *execProcess) Kill() {
	p.once.Do(func() {
		// os: process already finished no es un error para nosotros
		_ = p.cmd.Process.Kill()
	})
}

func exitStatusFrom(err error) ExitStatus {
	if err == nil {
		return ExitStatus{Code: 0, Normal: true}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return ExitStatus{Code: code, Normal: false}
		}
		return ExitStatus{Code: code, Normal: true}
	}
	return ExitStatus{Code: -1, Err: err}
}

// readLines entrega cada línea no vacía de r. Una línea de más de limit bytes
// se entrega truncada, así el JSON roto se reporta como registro inválido y
// las líneas siguientes se siguen leyendo.
func readLines(r io.Reader, limit int, forward func([]byte)) {
	br := bufio.NewReaderSize(r, 64<<10)
	keep := min(oversizedPrefix, limit)

	var (
		line      []byte
		oversized bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			emitLine(line, forward)
			return
		}
		if !oversized {
			if len(line)+len(chunk) > limit {
				oversized = true
				if len(line) < keep {
					line = append(line, chunk[:keep-len(line)]...)
				}
				line = line[:keep]
			} else {
				line = append(line, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		emitLine(line, forward)
		line = line[:0]
		oversized = false
	}
}

func emitLine(line []byte, forward func([]byte)) {
	if forward == nil || len(bytes.TrimSpace(line)) == 0 {
		return
	}
	forward(append([]byte(nil), line...))
}

func readChunks(r io.Reader, forward func([]byte)) {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && forward != nil {
			forward(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}

// Resolve busca el ejecutable en PATH (o valida la ruta absoluta)
func Resolve(program string) (string, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return "", errors.New("program not configured")
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", fmt.Errorf("binary %q not found: %w", program, err)
	}
	return path, nil
}
