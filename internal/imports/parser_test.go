package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func specifiers(refs []ImportRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Specifier)
	}
	return out
}

func TestRegistry_Dispatch(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "ts", r.ForFile("src/app.tsx").Language())
	assert.Equal(t, "ts", r.ForFile("lib/util.mjs").Language())
	assert.Equal(t, "py", r.ForFile("scripts/etl.py").Language())
	assert.Equal(t, "rs", r.ForFile("src/lib.rs").Language())
	assert.Nil(t, r.ForFile("README.md"))
	assert.Nil(t, r.ForFile("main.go"))
}

func TestTypeScriptParser(t *testing.T) {
	p := NewTypeScriptParser()

	src := []byte(`import { login } from './auth/login';
import * as api from '../api';
import type { User } from '@app/types';
export { session } from './auth/session';
const legacy = require('./legacy');

async function lazy() {
  const mod = await import('./lazy-module');
  return mod;
}
`)
	refs, err := p.ParseImports("src/index.ts", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"./auth/login", "../api", "@app/types", "./auth/session", "./legacy", "./lazy-module",
	}, specifiers(refs))
}

func TestTypeScriptParser_JSX(t *testing.T) {
	p := NewTypeScriptParser()
	src := []byte(`import React from 'react';
import { Button } from './components/button';

export function App() {
  return <Button label="go" />;
}
`)
	refs, err := p.ParseImports("src/app.tsx", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"react", "./components/button"}, specifiers(refs))
}

func TestPythonParser(t *testing.T) {
	p := NewPythonParser()
	src := []byte(`import os
import etl.transforms as t
from etl.loaders import postgres
from ..shared import config

def run():
    from etl.util import retry
    return retry
`)
	refs, err := p.ParseImports("pipelines/jobs/nightly.py", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"os", "etl.transforms", "etl.loaders", "..shared", "etl.util",
	}, specifiers(refs))
}

func TestRustParser(t *testing.T) {
	p := NewRustParser()
	src := []byte(`use std::collections::HashMap;
use crate::auth::token;
use crate::storage::{postgres, redis::pool};
use self::helpers;
use super::super::config as cfg;

mod helpers {
    use crate::auth::claims;
}
`)
	refs, err := p.ParseImports("src/api/handlers.rs", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"std::collections::HashMap",
		"crate::auth::token",
		"crate::storage::postgres",
		"crate::storage::redis::pool",
		"self::helpers",
		"super::super::config",
		"crate::auth::claims",
	}, specifiers(refs))
}
