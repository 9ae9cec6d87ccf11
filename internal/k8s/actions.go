package k8s

import (
	"bufio"
	"context"
	"fmt"
	"io"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/remotecommand"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/orca-cli/orca/internal/kinds"
)

// Mutations groups the imperative actions the action supervisor invokes
// against the cluster: scale, restart, delete, edit round-trips, exec, and
// log streaming.
type Mutations struct {
	client    *Client
	clientset kubernetes.Interface
}

// NewMutations constructs a Mutations collaborator over a started Client.
func NewMutations(c *Client) (*Mutations, error) {
	cs, err := kubernetes.NewForConfig(c.RESTConfig())
	if err != nil {
		return nil, fmt.Errorf("k8s: build clientset: %w", err)
	}
	return &Mutations{client: c, clientset: cs}, nil
}

// Delete deletes the named resource of kind in namespace (empty for
// cluster-scoped kinds).
func (m *Mutations) Delete(ctx context.Context, kind kinds.ResourceKind, namespace, name string) error {
	obj, err := m.unstructuredFor(kind, namespace, name)
	if err != nil {
		return err
	}
	if err := m.client.Client().Delete(ctx, obj); err != nil {
		return fmt.Errorf("k8s: delete %s %s/%s: %w", kind, namespace, name, err)
	}
	return nil
}

// Scale merge-patches spec.replicas on the object itself (not the scale
// subresource) for scalable kinds (Deployments,
// ReplicaSets, ReplicationControllers, StatefulSets).
func (m *Mutations) Scale(ctx context.Context, kind kinds.ResourceKind, namespace, name string, replicas int) error {
	capInfo, ok := kinds.CapabilityOf(kind)
	if !ok || !capInfo.SupportsScale {
		return fmt.Errorf("k8s: %s does not support scale", kind)
	}
	patch := client.RawPatch(types.MergePatchType, []byte(fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)))
	obj, err := m.unstructuredFor(kind, namespace, name)
	if err != nil {
		return err
	}
	if err := m.client.Client().Patch(ctx, obj, patch); err != nil {
		return fmt.Errorf("k8s: scale %s %s/%s: %w", kind, namespace, name, err)
	}
	return nil
}

// Restart performs a rollout-restart by patching the pod template
// annotation, mirroring `kubectl rollout restart` for Deployments,
// DaemonSets, and StatefulSets.
func (m *Mutations) Restart(ctx context.Context, kind kinds.ResourceKind, namespace, name string) error {
	capInfo, ok := kinds.CapabilityOf(kind)
	if !ok || !capInfo.SupportsRestart {
		return fmt.Errorf("k8s: %s does not support restart", kind)
	}
	now := metav1.Now().Format("2006-01-02T15:04:05Z07:00")
	patchBody := fmt.Sprintf(`{"spec":{"template":{"metadata":{"annotations":{"kubectl.kubernetes.io/restartedAt":%q}}}}}`, now)
	patch := client.RawPatch(types.StrategicMergePatchType, []byte(patchBody))
	obj, err := m.unstructuredFor(kind, namespace, name)
	if err != nil {
		return err
	}
	if err := m.client.Client().Patch(ctx, obj, patch); err != nil {
		return fmt.Errorf("k8s: restart %s %s/%s: %w", kind, namespace, name, err)
	}
	return nil
}

// Get fetches the typed or unstructured object for edit/exec target
// resolution (e.g. `:edit`'s launch of $KUBE_EDITOR against the live YAML).
func (m *Mutations) Get(ctx context.Context, kind kinds.ResourceKind, namespace, name string) (client.Object, error) {
	obj, err := m.unstructuredFor(kind, namespace, name)
	if err != nil {
		return nil, err
	}
	if err := m.client.Client().Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, obj); err != nil {
		return nil, fmt.Errorf("k8s: get %s %s/%s: %w", kind, namespace, name, err)
	}
	return obj, nil
}

// Apply applies a YAML/JSON manifest back after `:edit`, using
// server-side apply so partial field ownership from other controllers is
// preserved.
func (m *Mutations) Apply(ctx context.Context, kind kinds.ResourceKind, namespace, name string, raw []byte) error {
	obj, err := m.unstructuredFor(kind, namespace, name)
	if err != nil {
		return err
	}
	patch := client.RawPatch(types.ApplyPatchType, raw)
	if err := m.client.Client().Patch(ctx, obj, patch, client.ForceOwnership, client.FieldOwner("orca")); err != nil {
		return fmt.Errorf("k8s: apply %s %s/%s: %w", kind, namespace, name, err)
	}
	return nil
}

// Logs streams a pod's container logs into w until ctx is cancelled,
// the way `:logs` hands output to a slot-owned buffer.
func (m *Mutations) Logs(ctx context.Context, namespace, pod, container string, follow bool, w io.Writer) error {
	req := m.clientset.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{
		Container: container,
		Follow:    follow,
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return fmt.Errorf("k8s: open log stream for %s/%s: %w", namespace, pod, err)
	}
	defer stream.Close()

	reader := bufio.NewReader(stream)
	_, err = io.Copy(w, reader)
	if err != nil && err != io.EOF {
		return fmt.Errorf("k8s: stream logs for %s/%s: %w", namespace, pod, err)
	}
	return nil
}

// FirstPodForService resolves a service to one of its backing pods, the way
// `kubectl port-forward svc/...` picks a pod behind the service's selector.
func (m *Mutations) FirstPodForService(ctx context.Context, namespace, name string) (string, error) {
	svc, err := m.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("k8s: get service %s/%s: %w", namespace, name, err)
	}
	if len(svc.Spec.Selector) == 0 {
		return "", fmt.Errorf("k8s: service %s/%s has no selector", namespace, name)
	}
	sel := labels.SelectorFromSet(svc.Spec.Selector).String()
	pods, err := m.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: sel})
	if err != nil {
		return "", fmt.Errorf("k8s: list pods for service %s/%s: %w", namespace, name, err)
	}
	for _, p := range pods.Items {
		if p.Status.Phase == corev1.PodRunning {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("k8s: service %s/%s has no running pods", namespace, name)
}

// Exec runs command inside a pod's container with stdio wired to the
// Action Supervisor's foreground terminal handoff.
func (m *Mutations) Exec(ctx context.Context, namespace, pod, container string, command []string, stdin io.Reader, stdout, stderr io.Writer, tty bool) error {
	req := m.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(pod).
		Namespace(namespace).
		SubResource("exec")
	req.VersionedParams(&corev1.PodExecOptions{
		Container: container,
		Command:   command,
		Stdin:     stdin != nil,
		Stdout:    true,
		Stderr:    true,
		TTY:       tty,
	}, metav1.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(m.client.RESTConfig(), "POST", req.URL())
	if err != nil {
		return fmt.Errorf("k8s: build exec executor: %w", err)
	}
	return exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Tty:    tty,
	})
}

func (m *Mutations) unstructuredFor(kind kinds.ResourceKind, namespace, name string) (client.Object, error) {
	capInfo, ok := kinds.CapabilityOf(kind)
	if !ok {
		return nil, fmt.Errorf("k8s: unknown kind %v", kind)
	}
	obj, err := typedObjectFor(capInfo.GVK)
	if err != nil {
		return nil, err
	}
	obj.SetName(name)
	obj.SetNamespace(namespace)
	return obj, nil
}

// typedObjectFor returns a zero-value typed object for the well-known GVKs
// orca operates on, so Get/Delete/Patch go through the client's scheme; the
// dynamic client path is reserved for CRDInstance, where no static Go type
// exists.
func typedObjectFor(gvk schema.GroupVersionKind) (client.Object, error) {
	switch gvk.Kind {
	case "Deployment":
		return &appsv1.Deployment{}, nil
	case "ReplicaSet":
		return &appsv1.ReplicaSet{}, nil
	case "StatefulSet":
		return &appsv1.StatefulSet{}, nil
	case "DaemonSet":
		return &appsv1.DaemonSet{}, nil
	case "Pod":
		return &corev1.Pod{}, nil
	case "Service":
		return &corev1.Service{}, nil
	case "ConfigMap":
		return &corev1.ConfigMap{}, nil
	case "Secret":
		return &corev1.Secret{}, nil
	case "Namespace":
		return &corev1.Namespace{}, nil
	case "Node":
		return &corev1.Node{}, nil
	case "PersistentVolumeClaim":
		return &corev1.PersistentVolumeClaim{}, nil
	case "PersistentVolume":
		return &corev1.PersistentVolume{}, nil
	case "ServiceAccount":
		return &corev1.ServiceAccount{}, nil
	case "ReplicationController":
		return &corev1.ReplicationController{}, nil
	default:
		return nil, fmt.Errorf("k8s: no static type registered for %s; use the dynamic client for CRDInstance", gvk)
	}
}
