package testutil

import "testing"

// FixtureFiles is a small monorepo with a Next.js client and a NestJS server.
// A full audit over it finds three calls: GET /customers (verified),
// PATCH /customers/:param (method mismatch) and GET /invoices (missing).
var FixtureFiles = map[string]string{
	"client/lib/api.ts": `export async function apiFetch<T>(path: string, init?: RequestInit): Promise<T> {
  const res = await fetch('/api' + path, init);
  return res.json();
}
`,
	"client/lib/customers.ts": `import { apiFetch } from './api';

export const loadCustomers = () => apiFetch('/customers');

export const loadInvoices = () => fetch('/api/invoices');
`,
	"client/app/(dashboard)/customers/page.tsx": `import { CustomerTable } from './customer-table';
import { loadCustomers } from '@/lib/customers';

export default async function CustomersPage() {
  const customers = await loadCustomers();
  return <CustomerTable customers={customers} />;
}
`,
	"client/app/(dashboard)/customers/customer-table.tsx": `'use client';

export function CustomerTable({ customers }) {
  const rename = (id: string, name: string) =>
    apiFetch(` + "`/customers/${id}`" + `, {
      method: 'PATCH',
      body: JSON.stringify({ name }),
    });
  return null;
}
`,
	"client/app/api/customers/route.ts": `export async function GET() {
  return new Response(null);
}
`,
	"client/app/api/customers/[id]/route.ts": `export async function PATCH() {
  return new Response(null);
}
`,
	"server/src/customers/customers.controller.ts": `import { Controller, Get, Put } from '@nestjs/common';

@Controller('customers')
export class CustomersController {
  @Get()
  list() {}

  @Get(':id')
  get() {}

  @Put(':id')
  update() {}
}
`,
	"server/src/customers/customers.controller.spec.ts": `@Controller('ignored')
class X {
  @Get('never')
  never() {}
}
`,
}

// FixtureRepo writes FixtureFiles into a fresh temporary directory and
// returns its path.
func FixtureRepo(t testing.TB) string {
	t.Helper()
	return WriteTree(t, t.TempDir(), FixtureFiles)
}
