// prologue.go: runtime helper sources for emitted scripts.
//
// Each block is a self-contained piece of target source defining one
// helper group. RenderWithPrologue prepends only the groups the
// lowered module calls, so a program using no sugar renders with no
// prologue at all. Class bodies never reference double-underscore
// globals; the target language mangles such names inside class
// definitions, so shared logic is inlined or reached through
// single-underscore names instead.

package snail

import "strings"

// RenderWithPrologue is the standard rendering entry: future imports
// first (they must precede all other statements), then the helper
// groups the module needs, then the module body.
func RenderWithPrologue(m *PyModule) string {
	var futures, rest []PyStmt
	for _, st := range m.Body {
		if imp, ok := st.(*PyImportFrom); ok && isFutureImport(imp) {
			futures = append(futures, st)
			continue
		}
		rest = append(rest, st)
	}
	called := calledHelpers(m)
	var out strings.Builder
	wrote := false
	if len(futures) > 0 {
		out.WriteString(Render(&PyModule{Body: futures, Loc: m.Loc}))
		wrote = true
	}
	for _, block := range prologueBlocks {
		if !blockNeeded(block.names, called) {
			continue
		}
		if wrote {
			out.WriteByte('\n')
		}
		out.WriteString(block.source)
		wrote = true
	}
	if wrote && len(rest) > 0 {
		out.WriteByte('\n')
	}
	out.WriteString(Render(&PyModule{Body: rest, Loc: m.Loc}))
	return out.String()
}

func isFutureImport(imp *PyImportFrom) bool {
	return imp.Level == 0 && len(imp.Module) == 1 && imp.Module[0] == "__future__"
}

func blockNeeded(names []string, called map[string]bool) bool {
	for _, n := range names {
		if called[n] {
			return true
		}
	}
	return false
}

type prologueBlock struct {
	names  []string
	source string
}

var prologueBlocks = []prologueBlock{
	{[]string{helperCompactTry}, prologueCompactTry},
	{[]string{helperRegexSearch, helperRegexCompile}, prologueRegex},
	{[]string{classSubprocessCapture, classSubprocessStatus}, prologueSubprocess},
	{[]string{classStructuredAccess, "json"}, prologueStructured},
	{[]string{helperPartial}, prologuePartial},
	{[]string{helperIncrAttr, helperIncrIndex, helperAugAttr, helperAugIndex}, prologueAugmented},
	{[]string{classLazyFile, classLazyText}, prologueLazy},
}

const prologueCompactTry = `def __snail_compact_try(expr_fn, fallback_fn=None):
    try:
        return expr_fn()
    except Exception as __snail_compact_exc:
        if fallback_fn is None:
            fallback_member = getattr(__snail_compact_exc, "__fallback__", None)
            if callable(fallback_member):
                return fallback_member()
            return None
        return fallback_fn(__snail_compact_exc)
`

const prologueRegex = `import re

class __SnailRegex:
    def __init__(self, pattern):
        self.pattern = pattern
        self._regex = re.compile(pattern)

    def search(self, value):
        match = self._regex.search(value)
        if match is None:
            return ()
        return (match.group(0),) + match.groups()

    def __contains__(self, value):
        return bool(self.search(value))

    def __repr__(self):
        return f"/{self.pattern}/"

def __snail_regex_search(value, pattern):
    if isinstance(pattern, __SnailRegex):
        return pattern.search(value)
    if hasattr(pattern, "search"):
        match = pattern.search(value)
    else:
        match = re.search(pattern, value)
    if match is None:
        return ()
    return (match.group(0),) + match.groups()

def __snail_regex_compile(pattern):
    return __SnailRegex(pattern)
`

const prologueSubprocess = `import subprocess

class __SnailSubprocessCapture:
    def __init__(self, cmd):
        self.cmd = cmd

    def __pipeline__(self, input_data):
        try:
            if input_data is None:
                completed = subprocess.run(self.cmd, shell=True, check=True, text=True, stdout=subprocess.PIPE)
            else:
                if not isinstance(input_data, (str, bytes)):
                    input_data = str(input_data)
                completed = subprocess.run(self.cmd, shell=True, check=True, text=True, input=input_data, stdout=subprocess.PIPE)
            return completed.stdout.rstrip("\n")
        except subprocess.CalledProcessError as exc:
            def __fallback(exc=exc):
                raise exc
            exc.__fallback__ = __fallback
            raise

class __SnailSubprocessStatus:
    def __init__(self, cmd):
        self.cmd = cmd

    def __pipeline__(self, input_data):
        try:
            if input_data is None:
                subprocess.run(self.cmd, shell=True, check=True)
            else:
                if not isinstance(input_data, (str, bytes)):
                    input_data = str(input_data)
                subprocess.run(self.cmd, shell=True, check=True, text=True, input=input_data)
            return 0
        except subprocess.CalledProcessError as exc:
            def __fallback(exc=exc):
                return exc.returncode
            exc.__fallback__ = __fallback
            raise
`

const prologueStructured = `import json as _json
import sys as _sys

def _snail_jmespath():
    try:
        import jmespath
    except ImportError as exc:
        raise RuntimeError("structured accessors require the jmespath package (pip install jmespath)") from exc
    return jmespath

class __SnailStructuredAccessor:
    def __init__(self, query):
        self.query = query

    def __pipeline__(self, obj):
        if not hasattr(obj, "__structured__"):
            raise TypeError(f"Pipeline target must implement __structured__, got {type(obj).__name__}")
        return obj.__structured__(self.query)

class __SnailJsonObject:
    def __init__(self, data):
        self.data = data

    def __structured__(self, query):
        return _snail_jmespath().search(query, self.data)

    def __repr__(self):
        return _json.dumps(self.data, indent=2)

class __SnailJsonPipelineWrapper:
    def __pipeline__(self, input_data):
        return json(input_data)

    def __structured__(self, query):
        return json(_sys.stdin).__structured__(query)

    def __repr__(self):
        return repr(json(_sys.stdin))

def json(input_data=None):
    if input_data is None:
        return __SnailJsonPipelineWrapper()
    if isinstance(input_data, str):
        try:
            data = _json.loads(input_data)
        except _json.JSONDecodeError:
            with open(input_data) as handle:
                data = _json.load(handle)
    elif hasattr(input_data, "read"):
        content = input_data.read()
        if isinstance(content, bytes):
            content = content.decode("utf-8")
        data = _json.loads(content)
    elif isinstance(input_data, (dict, list, int, float, bool, type(None))):
        data = input_data
    else:
        raise TypeError(f"json() input must be JSON-compatible, got {type(input_data).__name__}")
    return __SnailJsonObject(data)
`

const prologuePartial = `def __snail_partial(fn, *args, **kwargs):
    def __snail_call():
        return fn(*args, **kwargs)
    return __snail_call
`

const prologueAugmented = `import operator as _operator

_snail_aug_ops = {
    "+": _operator.add,
    "-": _operator.sub,
    "*": _operator.mul,
    "/": _operator.truediv,
    "//": _operator.floordiv,
    "%": _operator.mod,
    "**": _operator.pow,
}

def _snail_apply_op(left, right, op):
    try:
        func = _snail_aug_ops[op]
    except KeyError as exc:
        raise ValueError(f"unknown augmented op: {op}") from exc
    return func(left, right)

def __snail_incr_attr(obj, attr, delta, pre):
    old = getattr(obj, attr)
    new = old + delta
    setattr(obj, attr, new)
    return new if pre else old

def __snail_incr_index(obj, index, delta, pre):
    old = obj[index]
    new = old + delta
    obj[index] = new
    return new if pre else old

def __snail_aug_attr(obj, attr, value, op):
    old = getattr(obj, attr)
    new = _snail_apply_op(old, value, op)
    setattr(obj, attr, new)
    return new

def __snail_aug_index(obj, index, value, op):
    old = obj[index]
    new = _snail_apply_op(old, value, op)
    obj[index] = new
    return new
`

const prologueLazy = `class __SnailLazyFile:
    __slots__ = ("_path", "_mode", "_kwargs", "_fd", "_closed")

    def __init__(self, path, mode="r", **kwargs):
        self._path = path
        self._mode = mode
        self._kwargs = kwargs
        self._fd = None
        self._closed = False

    def _ensure_open(self):
        if self._closed:
            raise ValueError("I/O operation on closed file.")
        if self._fd is None:
            self._fd = open(self._path, self._mode, **self._kwargs)
        return self._fd

    def __enter__(self):
        return self

    def __exit__(self, exc_type, exc, tb):
        self._closed = True
        if self._fd is not None:
            self._fd.close()
        return False

    def __getattr__(self, name):
        return getattr(self._ensure_open(), name)

    def __iter__(self):
        return iter(self._ensure_open())

    def __next__(self):
        return next(self._ensure_open())

class __SnailLazyText:
    __slots__ = ("_fd", "_text")

    def __init__(self, fd):
        self._fd = fd
        self._text = None

    def _ensure_loaded(self):
        if self._text is None:
            self._text = self._fd.read()
        return self._text

    def __str__(self):
        return self._ensure_loaded()

    def __repr__(self):
        return repr(str(self))

    def __eq__(self, other):
        if isinstance(other, type(self)):
            return str(self) == str(other)
        return str(self) == other

    def __hash__(self):
        return hash(str(self))

    def __len__(self):
        return len(str(self))

    def __iter__(self):
        return iter(str(self))

    def __contains__(self, item):
        return item in str(self)

    def __add__(self, other):
        return str(self) + other

    def __radd__(self, other):
        return other + str(self)

    def __getattr__(self, name):
        return getattr(str(self), name)
`
