package ninja

import "testing"

func TestFilterBuilder(t *testing.T) {
	tests := []struct {
		name  string
		build func(*FilterBuilder) error
		want  string
	}{
		{
			name:  "empty",
			build: func(b *FilterBuilder) error { return nil },
			want:  "",
		},
		{
			name: "single organization",
			build: func(b *FilterBuilder) error {
				b.Organizations([]int{5}, false)
				return nil
			},
			want: "org=5",
		},
		{
			name: "single organization excluded",
			build: func(b *FilterBuilder) error {
				b.Organizations([]int{5}, true)
				return nil
			},
			want: "org!=5",
		},
		{
			name: "multiple organizations",
			build: func(b *FilterBuilder) error {
				b.Organizations([]int{1, 2, 3}, false)
				return nil
			},
			want: "org in (1, 2, 3)",
		},
		{
			name: "multiple organizations excluded",
			build: func(b *FilterBuilder) error {
				b.Organizations([]int{1, 2}, true)
				return nil
			},
			want: "org nin (1, 2)",
		},
		{
			name: "single location",
			build: func(b *FilterBuilder) error {
				b.Locations([]int{7}, false)
				return nil
			},
			want: "loc=7",
		},
		{
			name: "single device class",
			build: func(b *FilterBuilder) error {
				_, err := b.DeviceClasses([]string{"WINDOWS_SERVER"}, false)
				return err
			},
			want: "class=WINDOWS_SERVER",
		},
		{
			name: "device classes lowercased input",
			build: func(b *FilterBuilder) error {
				_, err := b.DeviceClasses([]string{"mac", " linux_server "}, false)
				return err
			},
			want: "class in (MAC, LINUX_SERVER)",
		},
		{
			name: "device classes excluded",
			build: func(b *FilterBuilder) error {
				_, err := b.DeviceClasses([]string{"NMS_PRINTER", "NMS_SCANNER"}, true)
				return err
			},
			want: "class nin (NMS_PRINTER, NMS_SCANNER)",
		},
		{
			name: "approval status",
			build: func(b *FilterBuilder) error {
				_, err := b.ApprovalStatus("pending")
				return err
			},
			want: "status=PENDING",
		},
		{
			name: "online",
			build: func(b *FilterBuilder) error {
				b.Online(true)
				return nil
			},
			want: "online",
		},
		{
			name: "offline",
			build: func(b *FilterBuilder) error {
				b.Online(false)
				return nil
			},
			want: "offline",
		},
		{
			name: "combined clauses joined with AND",
			build: func(b *FilterBuilder) error {
				b.Organizations([]int{1}, false)
				b.Locations([]int{2, 3}, false)
				if _, err := b.DeviceClasses([]string{"MAC"}, false); err != nil {
					return err
				}
				_, err := b.ApprovalStatus("APPROVED")
				return err
			},
			want: "org=1 AND loc in (2, 3) AND class=MAC AND status=APPROVED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b FilterBuilder
			if err := tt.build(&b); err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if got := b.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterBuilderValidation(t *testing.T) {
	var b FilterBuilder

	if _, err := b.DeviceClasses([]string{"TOASTER"}, false); err == nil {
		t.Error("expected error for unknown device class")
	}
	if _, err := b.ApprovalStatus("MAYBE"); err == nil {
		t.Error("expected error for unknown approval status")
	}

	// Failed criteria leave no partial clauses behind.
	if got := b.String(); got != "" {
		t.Errorf("String() = %q, want empty after rejected criteria", got)
	}
}
